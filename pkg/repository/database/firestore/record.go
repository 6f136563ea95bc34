package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/record"
	"github.com/m-mizutani/inari/pkg/domain/types"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// headDoc points at the newest versions of one key
type headDoc struct {
	Key            []string  `firestore:"key"`
	Version        int64     `firestore:"version"`
	LatestID       string    `firestore:"latest_id"`
	LatestActiveID string    `firestore:"latest_active_id"`
	CreatedAt      time.Time `firestore:"created_at"`
}

// versionDoc is one stored version
type versionDoc struct {
	ID        string    `firestore:"id"`
	Key       []string  `firestore:"key"`
	Version   int64     `firestore:"version"`
	Active    bool      `firestore:"active"`
	Data      []byte    `firestore:"data"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toVersionDoc(rec *record.Record) *versionDoc {
	return &versionDoc{
		ID:        rec.ID.String(),
		Key:       rec.Key,
		Version:   rec.Version,
		Active:    rec.Active,
		Data:      rec.Data,
		CreatedAt: rec.CreatedAt,
	}
}

func (d *versionDoc) toRecord(table string) *record.Record {
	return &record.Record{
		ID:        types.VersionID(d.ID),
		Table:     table,
		Key:       record.Key(d.Key),
		Version:   d.Version,
		Active:    d.Active,
		Data:      d.Data,
		CreatedAt: d.CreatedAt,
	}
}

// headDocID derives a document ID from a key. Key parts may contain
// characters that are not allowed in document IDs, so the encoded key is
// hashed.
func headDocID(key record.Key) string {
	sum := sha256.Sum256([]byte(key.String()))
	return hex.EncodeToString(sum[:])
}

// Insert stores a new version of rec.Key inside a transaction so that
// concurrent writers get distinct, consecutive version numbers.
func (c *Client) Insert(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if rec == nil {
		return nil, goerr.New("record cannot be nil", goerr.T(apperr.ErrTagInvalidInput))
	}
	if err := rec.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid record", goerr.T(apperr.ErrTagInvalidInput))
	}

	// Pre-generate values outside the transaction since it may be retried
	id := types.NewVersionID(ctx)
	now := c.now().UTC().Truncate(time.Microsecond)
	headRef := c.collection(rec.Table).Doc(headDocID(rec.Key))

	var stored *record.Record
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var head headDoc
		var prev *record.Record

		snap, err := tx.Get(headRef)
		switch {
		case status.Code(err) == codes.NotFound:
			// first version of this key
		case err != nil:
			return goerr.Wrap(err, "failed to get head document")
		default:
			if err := snap.DataTo(&head); err != nil {
				return goerr.Wrap(err, "failed to decode head document", goerr.TV(apperr.DocumentIDKey, headRef.ID))
			}
			prev = &record.Record{Version: head.Version, CreatedAt: head.CreatedAt}
		}

		stored = rec.Copy()
		stored.ID = id
		stored.Version = record.NextVersion(prev)
		stored.CreatedAt = record.NextCreatedAt(now, prev)

		head.Key = stored.Key
		head.Version = stored.Version
		head.LatestID = id.String()
		if stored.Active {
			head.LatestActiveID = id.String()
		}
		head.CreatedAt = stored.CreatedAt

		versionRef := headRef.Collection(subCollectionVersions).Doc(id.String())
		if err := tx.Create(versionRef, toVersionDoc(stored)); err != nil {
			return goerr.Wrap(err, "failed to create version document")
		}
		return tx.Set(headRef, &head)
	})
	if err != nil {
		return nil, wrapErr(err, "failed to insert record", rec.Table,
			goerr.TV(apperr.RecordKeyKey, rec.Key.String()))
	}

	return stored, nil
}

// GetLatest returns the newest version of key, or nil if none exists
func (c *Client) GetLatest(ctx context.Context, table string, key record.Key, activeOnly bool) (*record.Record, error) {
	headRef := c.collection(table).Doc(headDocID(key))
	snap, err := headRef.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "failed to get head document", table,
			goerr.TV(apperr.RecordKeyKey, key.String()))
	}

	var head headDoc
	if err := snap.DataTo(&head); err != nil {
		return nil, wrapErr(err, "failed to decode head document", table,
			goerr.TV(apperr.RecordKeyKey, key.String()))
	}

	id := head.LatestID
	if activeOnly {
		id = head.LatestActiveID
	}
	if id == "" {
		return nil, nil
	}

	vSnap, err := headRef.Collection(subCollectionVersions).Doc(id).Get(ctx)
	if err != nil {
		return nil, wrapErr(err, "failed to get version document", table,
			goerr.TV(apperr.RecordKeyKey, key.String()),
			goerr.TV(apperr.DocumentIDKey, id))
	}

	var doc versionDoc
	if err := vSnap.DataTo(&doc); err != nil {
		return nil, wrapErr(err, "failed to decode version document", table,
			goerr.TV(apperr.DocumentIDKey, id))
	}
	return doc.toRecord(table), nil
}

// GetHistory returns up to limit versions of key, newest first
func (c *Client) GetHistory(ctx context.Context, table string, key record.Key, limit int) ([]*record.Record, error) {
	query := c.collection(table).Doc(headDocID(key)).
		Collection(subCollectionVersions).
		OrderBy("version", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []*record.Record
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr(err, "failed to iterate versions", table,
				goerr.TV(apperr.RecordKeyKey, key.String()))
		}

		var doc versionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, wrapErr(err, "failed to decode version document", table,
				goerr.TV(apperr.DocumentIDKey, snap.Ref.ID))
		}
		records = append(records, doc.toRecord(table))
	}

	return records, nil
}

// ListKeys returns every key that has a head document in table
func (c *Client) ListKeys(ctx context.Context, table string) ([]record.Key, error) {
	iter := c.collection(table).Documents(ctx)
	defer iter.Stop()

	var keys []record.Key
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr(err, "failed to iterate head documents", table)
		}

		var head headDoc
		if err := snap.DataTo(&head); err != nil {
			return nil, wrapErr(err, "failed to decode head document", table,
				goerr.TV(apperr.DocumentIDKey, snap.Ref.ID))
		}
		keys = append(keys, record.Key(head.Key))
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys, nil
}
