package memberservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	memberdb "github.com/sjlangley/social-golf-spa/app/modules/member/infrastructure/repositories"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/sjlangley/social-golf-spa/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "MemberService"

// MemberService implements the Service interface.
type MemberService struct {
	repo    memberdb.Repository
	logger  *slog.Logger
	metrics metrics.OperationMetrics
	tracer  trace.Tracer
	db      *bun.DB
}

// NewMemberService creates a new MemberService. db may be nil in tests, in
// which case operations run without a transaction.
func NewMemberService(
	repo memberdb.Repository,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *MemberService {
	return &MemberService{
		repo:    repo,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		db:      db,
	}
}

type memberResult = results.OperationResult[*memberdomain.Member, error]

// EnsureMember resolves or creates the caller's member record.
func (s *MemberService) EnsureMember(ctx context.Context, subject, email, name string) (*memberdomain.Member, error) {
	result, err := withTelemetry(s, ctx, "EnsureMember", subject, func(ctx context.Context) (memberResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (memberResult, error) {
			return s.ensureMemberTx(ctx, db, subject, email, name)
		})
	})
	if errors.Is(err, memberdb.ErrDuplicate) {
		// A concurrent first sign-in for the same subject won the insert.
		existing, getErr := s.repo.GetBySubject(ctx, nil, subject)
		if getErr != nil {
			return nil, fmt.Errorf("reload member after conflict: %w", getErr)
		}
		return toDomain(existing), nil
	}
	return unwrap(result, err)
}

func (s *MemberService) ensureMemberTx(ctx context.Context, db bun.IDB, subject, email, name string) (memberResult, error) {
	existing, err := s.repo.GetBySubject(ctx, db, subject)
	if err == nil {
		return results.SuccessResult[*memberdomain.Member, error](toDomain(existing)), nil
	}
	if !errors.Is(err, memberdb.ErrNotFound) {
		return memberResult{}, err
	}

	if email != "" {
		unlinked, err := s.repo.GetUnlinkedByEmail(ctx, db, email)
		switch {
		case err == nil:
			if err := s.repo.LinkSubject(ctx, db, unlinked.ID, subject, name); err != nil {
				return memberResult{}, fmt.Errorf("link subject: %w", err)
			}
			unlinked.AuthSubject = &subject
			if name != "" {
				unlinked.Name = name
			}
			s.logger.InfoContext(ctx, "Linked sign-in to existing member",
				attr.MemberID(unlinked.ID.String()),
			)
			return results.SuccessResult[*memberdomain.Member, error](toDomain(unlinked)), nil
		case !errors.Is(err, memberdb.ErrNotFound):
			return memberResult{}, err
		}
	}

	roles := []string{authdomain.RoleReader.String()}
	bootstrapped, err := s.repo.SetFlagOnce(ctx, db, memberdomain.AdminBootstrapFlag)
	if err != nil {
		return memberResult{}, err
	}
	if bootstrapped {
		roles = []string{authdomain.RoleAdmin.String()}
	}

	record := &memberdb.Member{
		AuthSubject: &subject,
		Email:       email,
		Name:        name,
		Roles:       roles,
		Permissions: map[string]bool{},
	}
	if err := s.repo.Create(ctx, db, record); err != nil {
		return memberResult{}, err
	}

	if bootstrapped {
		s.logger.WarnContext(ctx, "Granted bootstrap admin role to first member",
			attr.MemberID(record.ID.String()),
			attr.String("email", email),
		)
	}
	return results.SuccessResult[*memberdomain.Member, error](toDomain(record)), nil
}

// ResolvePrincipal maps verified claims onto the stored member.
func (s *MemberService) ResolvePrincipal(ctx context.Context, claims *authdomain.Claims) (*authdomain.Principal, error) {
	m, err := s.EnsureMember(ctx, claims.Subject, claims.Email, claims.Name)
	if err != nil {
		return nil, err
	}
	return &authdomain.Principal{
		MemberID:  m.ID,
		Subject:   claims.Subject,
		Email:     m.Email,
		Name:      m.Name,
		Roles:     authdomain.ParseRoles(m.Roles),
		Overrides: m.Permissions,
	}, nil
}

// ListMembers returns one cursor page of members.
func (s *MemberService) ListMembers(ctx context.Context, params memberdomain.ListParams) (memberdomain.Page[*memberdomain.Member], error) {
	ctx, span := s.tracer.Start(ctx, "MemberService.ListMembers", trace.WithAttributes(
		attribute.String("sort_by", string(params.SortBy)),
		attribute.Int("limit", params.Limit),
	))
	defer span.End()

	rows, err := s.repo.List(ctx, nil, params)
	if err != nil {
		span.RecordError(err)
		return memberdomain.Page[*memberdomain.Member]{}, fmt.Errorf("list members: %w", err)
	}

	members := make([]*memberdomain.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, toDomain(r))
	}
	return memberdomain.BuildPage(members, params), nil
}

// CreateMember inserts a member ahead of their first sign-in.
func (s *MemberService) CreateMember(ctx context.Context, req CreateMemberRequest) (*memberdomain.Member, error) {
	result, err := withTelemetry(s, ctx, "CreateMember", req.Email, func(ctx context.Context) (memberResult, error) {
		if err := validateCreate(&req); err != nil {
			return results.FailureResult[*memberdomain.Member, error](err), nil
		}

		record := &memberdb.Member{
			Email:       req.Email,
			Name:        req.Name,
			Roles:       req.Roles,
			Permissions: req.Permissions,
		}
		if err := s.repo.Create(ctx, nil, record); err != nil {
			if errors.Is(err, memberdb.ErrDuplicate) {
				return results.FailureResult[*memberdomain.Member, error](ErrMemberExists), nil
			}
			return memberResult{}, err
		}
		return results.SuccessResult[*memberdomain.Member, error](toDomain(record)), nil
	})
	return unwrap(result, err)
}

// GetMember reads a single member.
func (s *MemberService) GetMember(ctx context.Context, id uuid.UUID) (*memberdomain.Member, error) {
	record, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, memberdb.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return toDomain(record), nil
}

func validateCreate(req *CreateMemberRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" && req.Name == "" {
		return fmt.Errorf("%w: email or name is required", ErrInvalidMember)
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return fmt.Errorf("%w: email %q is not valid", ErrInvalidMember, req.Email)
		}
	}
	for _, r := range req.Roles {
		if !authdomain.Role(r).IsValid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidMember, r)
		}
	}
	for scope := range req.Permissions {
		if !strings.Contains(scope, ":") {
			return fmt.Errorf("%w: permission %q must be resource:action", ErrInvalidMember, scope)
		}
	}
	if req.Roles == nil {
		req.Roles = []string{authdomain.RoleReader.String()}
	}
	return nil
}

func toDomain(m *memberdb.Member) *memberdomain.Member {
	out := &memberdomain.Member{
		ID:          m.ID,
		Email:       m.Email,
		Name:        m.Name,
		Roles:       m.Roles,
		Permissions: m.Permissions,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.AuthSubject != nil {
		out.AuthSubject = *m.AuthSubject
	}
	if out.Roles == nil {
		out.Roles = []string{}
	}
	return out
}

func unwrap(result memberResult, err error) (*memberdomain.Member, error) {
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	if !result.IsSuccess() {
		return nil, errors.New("member operation returned no result")
	}
	return *result.Success, nil
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *MemberService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *MemberService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
