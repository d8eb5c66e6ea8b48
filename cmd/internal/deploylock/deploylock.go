// Package deploylock serializes deploys between CI and humans with a
// DynamoDB conditional-put lock. One item per qualifier; whoever writes the
// item first holds the lock, and release is token-checked so a stale runner
// cannot free somebody else's claim.
package deploylock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
)

var (
	ErrLockHeld      = errors.New("deploy lock is already held")
	ErrLockNotHeld   = errors.New("deploy lock is not held")
	ErrTokenMismatch = errors.New("lock token does not match")
)

// DynamoDBAPI is the subset of the DynamoDB client the lock uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Info describes the current holder of a lock.
type Info struct {
	Token      string
	Label      string
	AcquiredAt string
}

type Store struct {
	db    DynamoDBAPI
	table string
}

func NewStore(db DynamoDBAPI, table string) *Store {
	return &Store{db: db, table: table}
}

func NewStoreFromConfig(awscfg aws.Config, table string) *Store {
	return NewStore(dynamodb.NewFromConfig(awscfg), table)
}

// Acquire claims the lock for the qualifier. Returns ErrLockHeld (marked)
// when someone else holds it.
func (s *Store) Acquire(ctx context.Context, qualifier, token, label string) error {
	_, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]ddbtypes.AttributeValue{
			"LockId":     &ddbtypes.AttributeValueMemberS{Value: qualifier},
			"Token":      &ddbtypes.AttributeValueMemberS{Value: token},
			"Label":      &ddbtypes.AttributeValueMemberS{Value: label},
			"AcquiredAt": &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(LockId)"),
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			holder, getErr := s.Get(ctx, qualifier)
			if getErr == nil && holder != nil {
				return errors.Mark(
					errors.Newf("deploy lock for %s is held by %s since %s",
						qualifier, holder.Label, holder.AcquiredAt),
					ErrLockHeld,
				)
			}
			return errors.Mark(
				errors.Newf("deploy lock for %s is already held", qualifier),
				ErrLockHeld,
			)
		}
		return errors.Wrapf(err, "acquiring deploy lock for %s", qualifier)
	}
	return nil
}

// Release frees the lock if it is held with the given token. The token check
// happens inside DynamoDB, so a concurrent re-acquire cannot be clobbered.
func (s *Store) Release(ctx context.Context, qualifier, token string) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"LockId": &ddbtypes.AttributeValueMemberS{Value: qualifier},
		},
		ConditionExpression: aws.String("attribute_exists(LockId) AND #t = :token"),
		ExpressionAttributeNames: map[string]string{
			"#t": "Token",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":token": &ddbtypes.AttributeValueMemberS{Value: token},
		},
	})
	if err != nil {
		var condErr *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			holder, getErr := s.Get(ctx, qualifier)
			if getErr == nil && holder == nil {
				return errors.Mark(
					errors.Newf("deploy lock for %s is not held", qualifier),
					ErrLockNotHeld,
				)
			}
			return errors.Mark(
				errors.Newf("deploy lock for %s is held with a different token", qualifier),
				ErrTokenMismatch,
			)
		}
		return errors.Wrapf(err, "releasing deploy lock for %s", qualifier)
	}
	return nil
}

// ForceRelease frees the lock regardless of who holds it.
func (s *Store) ForceRelease(ctx context.Context, qualifier string) error {
	holder, err := s.Get(ctx, qualifier)
	if err != nil {
		return err
	}
	if holder == nil {
		return errors.Mark(
			errors.Newf("deploy lock for %s is not held", qualifier),
			ErrLockNotHeld,
		)
	}

	_, err = s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"LockId": &ddbtypes.AttributeValueMemberS{Value: qualifier},
		},
	})
	return errors.Wrapf(err, "force-releasing deploy lock for %s", qualifier)
}

// Get returns the current holder, or nil when the lock is free.
func (s *Store) Get(ctx context.Context, qualifier string) (*Info, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]ddbtypes.AttributeValue{
			"LockId": &ddbtypes.AttributeValueMemberS{Value: qualifier},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading deploy lock for %s", qualifier)
	}
	if len(out.Item) == 0 {
		return nil, nil //nolint:nilnil // nil means "not held"
	}

	return &Info{
		Token:      stringAttr(out.Item, "Token"),
		Label:      stringAttr(out.Item, "Label"),
		AcquiredAt: stringAttr(out.Item, "AcquiredAt"),
	}, nil
}

func stringAttr(item map[string]ddbtypes.AttributeValue, name string) string {
	if s, ok := item[name].(*ddbtypes.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating token")
	}
	return hex.EncodeToString(b), nil
}

// DefaultLabel identifies the lock holder as user@host for status output.
func DefaultLabel(ctx context.Context) string {
	user := runGit(ctx, "config", "user.name")
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		user = "unknown"
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}
	return user + "@" + host
}

func runGit(ctx context.Context, args ...string) string {
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
