package deploylock_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"

	"github.com/threetierhq/ttapp/cmd/internal/deploylock"
)

// fakeTable implements the conditional-put semantics the lock relies on.
type fakeTable struct {
	items map[string]map[string]ddbtypes.AttributeValue
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]ddbtypes.AttributeValue{}}
}

func keyOf(attrs map[string]ddbtypes.AttributeValue) string {
	return attrs["LockId"].(*ddbtypes.AttributeValueMemberS).Value
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := keyOf(in.Item)
	if in.ConditionExpression != nil {
		if _, exists := f.items[key]; exists {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	item, ok := f.items[keyOf(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := keyOf(in.Key)
	item, exists := f.items[key]
	if in.ConditionExpression != nil {
		if !exists {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		}
		want := in.ExpressionAttributeValues[":token"].(*ddbtypes.AttributeValueMemberS).Value
		got := item["Token"].(*ddbtypes.AttributeValueMemberS).Value
		if want != got {
			return nil, &ddbtypes.ConditionalCheckFailedException{}
		}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestAcquireRelease(t *testing.T) {
	t.Parallel()
	store := deploylock.NewStore(newFakeTable(), "locks")
	ctx := context.Background()

	if err := store.Acquire(ctx, "ttapp", "tok-1", "ci@runner"); err != nil {
		t.Fatal(err)
	}

	info, err := store.Get(ctx, "ttapp")
	if err != nil {
		t.Fatal(err)
	}
	if info == nil || info.Label != "ci@runner" {
		t.Fatalf("unexpected holder: %+v", info)
	}

	if err := store.Release(ctx, "ttapp", "tok-1"); err != nil {
		t.Fatal(err)
	}

	info, err = store.Get(ctx, "ttapp")
	if err != nil {
		t.Fatal(err)
	}
	if info != nil {
		t.Fatalf("lock should be free, held by %+v", info)
	}
}

func TestAcquire_AlreadyHeld(t *testing.T) {
	t.Parallel()
	store := deploylock.NewStore(newFakeTable(), "locks")
	ctx := context.Background()

	if err := store.Acquire(ctx, "ttapp", "tok-1", "alice@host"); err != nil {
		t.Fatal(err)
	}

	err := store.Acquire(ctx, "ttapp", "tok-2", "bob@host")
	if !errors.Is(err, deploylock.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
}

func TestRelease_WrongToken(t *testing.T) {
	t.Parallel()
	store := deploylock.NewStore(newFakeTable(), "locks")
	ctx := context.Background()

	if err := store.Acquire(ctx, "ttapp", "tok-1", "alice@host"); err != nil {
		t.Fatal(err)
	}

	err := store.Release(ctx, "ttapp", "tok-2")
	if !errors.Is(err, deploylock.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch, got %v", err)
	}

	info, _ := store.Get(ctx, "ttapp")
	if info == nil {
		t.Fatal("lock should still be held after failed release")
	}
}

func TestRelease_NotHeld(t *testing.T) {
	t.Parallel()
	store := deploylock.NewStore(newFakeTable(), "locks")

	err := store.Release(context.Background(), "ttapp", "tok-1")
	if !errors.Is(err, deploylock.ErrLockNotHeld) {
		t.Fatalf("expected ErrLockNotHeld, got %v", err)
	}
}

func TestForceRelease(t *testing.T) {
	t.Parallel()
	store := deploylock.NewStore(newFakeTable(), "locks")
	ctx := context.Background()

	if err := store.Acquire(ctx, "ttapp", "tok-1", "alice@host"); err != nil {
		t.Fatal(err)
	}
	if err := store.ForceRelease(ctx, "ttapp"); err != nil {
		t.Fatal(err)
	}
	if err := store.Acquire(ctx, "ttapp", "tok-2", "bob@host"); err != nil {
		t.Fatalf("lock should be acquirable after force release: %v", err)
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()
	a, err := deploylock.GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := deploylock.GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 32 || a == b {
		t.Errorf("tokens should be 32 hex chars and unique: %q %q", a, b)
	}
}
