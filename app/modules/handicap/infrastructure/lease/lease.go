// Package handicaplease provides a per-member recalculation lease backed by a
// JetStream key-value bucket.
package handicaplease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

// Bucket is the KV bucket holding leases.
const Bucket = "handicap-leases"

// KeyValue is the narrow store the lease needs.
type KeyValue interface {
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	DeleteRevision(ctx context.Context, key string, revision uint64) error
}

type jetStreamKV struct {
	kv jetstream.KeyValue
}

// FromJetStream adapts a JetStream bucket to KeyValue.
func FromJetStream(kv jetstream.KeyValue) KeyValue {
	return jetStreamKV{kv: kv}
}

func (j jetStreamKV) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	return j.kv.Create(ctx, key, value)
}

func (j jetStreamKV) DeleteRevision(ctx context.Context, key string, revision uint64) error {
	return j.kv.Delete(ctx, key, jetstream.LastRevision(revision))
}

// KVLease acquires a lease by creating the member key. The bucket TTL expires
// leases left behind by crashed workers.
type KVLease struct {
	kv     KeyValue
	owner  string
	logger *slog.Logger
}

// NewKVLease creates a lease over kv. owner identifies this worker in the
// stored value.
func NewKVLease(kv KeyValue, owner string, logger *slog.Logger) *KVLease {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVLease{kv: kv, owner: owner, logger: logger}
}

// Acquire claims memberID. It returns handicapservice.ErrLeaseHeld when
// another worker holds it.
func (l *KVLease) Acquire(ctx context.Context, memberID string) (func(), error) {
	key := Key(memberID)
	rev, err := l.kv.Create(ctx, key, []byte(l.owner))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return nil, fmt.Errorf("%w: %s", handicapservice.ErrLeaseHeld, memberID)
		}
		return nil, fmt.Errorf("create lease key: %w", err)
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.kv.DeleteRevision(ctx, key, rev); err != nil {
			l.logger.Warn("Failed to release member lease; it will expire with the bucket TTL",
				attr.MemberID(memberID),
				attr.Error(err),
			)
		}
	}
	return release, nil
}

// Key is the KV key for a member lease.
func Key(memberID string) string {
	return "member." + memberID
}

var _ handicapservice.Lease = (*KVLease)(nil)
