package dynamodb

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// mockDDB is a minimal mock of the DDBAPI interface for unit testing.
type mockDDB struct {
	putItemFn           func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	getItemFn           func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	queryFn             func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	updateItemFn        func(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	deleteItemFn        func(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	transactWriteItemFn func(ctx context.Context, input *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	describeTableFn     func(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	createTableFn       func(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	updateTTLFn         func(ctx context.Context, input *dynamodb.UpdateTimeToLiveInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
	deleteTableFn       func(ctx context.Context, input *dynamodb.DeleteTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

func (m *mockDDB) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putItemFn != nil {
		return m.putItemFn(ctx, input, opts...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDB) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getItemFn != nil {
		return m.getItemFn(ctx, input, opts...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDDB) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, input, opts...)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *mockDDB) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	if m.updateItemFn != nil {
		return m.updateItemFn(ctx, input, opts...)
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDDB) DeleteItem(ctx context.Context, input *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if m.deleteItemFn != nil {
		return m.deleteItemFn(ctx, input, opts...)
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDB) TransactWriteItems(ctx context.Context, input *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	if m.transactWriteItemFn != nil {
		return m.transactWriteItemFn(ctx, input, opts...)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (m *mockDDB) DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if m.describeTableFn != nil {
		return m.describeTableFn(ctx, input, opts...)
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func (m *mockDDB) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if m.createTableFn != nil {
		return m.createTableFn(ctx, input, opts...)
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func (m *mockDDB) UpdateTimeToLive(ctx context.Context, input *dynamodb.UpdateTimeToLiveInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error) {
	if m.updateTTLFn != nil {
		return m.updateTTLFn(ctx, input, opts...)
	}
	return &dynamodb.UpdateTimeToLiveOutput{}, nil
}

func (m *mockDDB) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	if m.deleteTableFn != nil {
		return m.deleteTableFn(ctx, input, opts...)
	}
	return &dynamodb.DeleteTableOutput{}, nil
}

func newTestBackend(mock *mockDDB) *Backend {
	b := NewFromClient(mock, "test-table", false)
	b.SetLogger(slog.Default())
	return b
}

func counterMock(next int64) func(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return func(_ context.Context, _ *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{
			Attributes: map[string]ddbtypes.AttributeValue{
				"value": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)},
			},
		}, nil
	}
}

func sVal(t *testing.T, item map[string]ddbtypes.AttributeValue, key string) string {
	t.Helper()
	av, ok := item[key].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		t.Fatalf("attribute %q missing or not a string", key)
	}
	return av.Value
}

func sampleInstance() types.Instance {
	alarm := int64(12)
	tone := "ocean"
	inst := types.NewInstance(time.Date(2026, 4, 2, 6, 45, 0, 0, time.UTC), &alarm)
	inst.Label = "run"
	inst.Ringtone = &tone
	return *inst
}

// ---------------------------------------------------------------------------
// Create / dual-write tests
// ---------------------------------------------------------------------------

func TestCreate_DualWritesTruthAndListCopy(t *testing.T) {
	var captured *dynamodb.TransactWriteItemsInput
	mock := &mockDDB{
		updateItemFn: counterMock(41),
		transactWriteItemFn: func(_ context.Context, input *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = input
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}
	b := newTestBackend(mock)

	id, err := b.Create(context.Background(), sampleInstance())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 41 {
		t.Errorf("id = %d, want 41", id)
	}
	if captured == nil || len(captured.TransactItems) != 2 {
		t.Fatalf("expected 2 transact items, got %+v", captured)
	}

	truth := captured.TransactItems[0].Put
	if got := sVal(t, truth.Item, "PK"); got != "INSTANCE#41" {
		t.Errorf("truth PK = %q", got)
	}
	if got := sVal(t, truth.Item, "SK"); got != "INSTANCE" {
		t.Errorf("truth SK = %q", got)
	}
	if got := sVal(t, truth.Item, "GSI1PK"); got != "STATE#SILENT" {
		t.Errorf("GSI1PK = %q", got)
	}
	if aws.ToString(truth.ConditionExpression) != "attribute_not_exists(PK)" {
		t.Errorf("truth condition = %q", aws.ToString(truth.ConditionExpression))
	}

	list := captured.TransactItems[1].Put
	if got := sVal(t, list.Item, "PK"); got != "ALARM#12" {
		t.Errorf("list PK = %q", got)
	}
	if got := sVal(t, list.Item, "SK"); got != "INSTANCE#0000000000000000041" {
		t.Errorf("list SK = %q", got)
	}
	if _, ok := list.Item["GSI1PK"]; ok {
		t.Error("list copy must not be indexed by state")
	}

	var decoded types.Instance
	if err := attributevalue.UnmarshalMapWithOptions(truth.Item, &decoded, decodeJSONTags); err != nil {
		t.Fatalf("unmarshal truth: %v", err)
	}
	if decoded.ID != 41 || decoded.Label != "run" || decoded.Ringtone == nil || *decoded.Ringtone != "ocean" {
		t.Errorf("decoded truth = %+v", decoded)
	}
}

func TestCreate_NoAlarmSkipsListCopy(t *testing.T) {
	var n int
	mock := &mockDDB{
		updateItemFn: counterMock(1),
		transactWriteItemFn: func(_ context.Context, input *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			n = len(input.TransactItems)
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}
	inst := sampleInstance()
	inst.AlarmID = nil

	if _, err := newTestBackend(mock).Create(context.Background(), inst); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n != 1 {
		t.Errorf("transact items = %d, want 1", n)
	}
}

// ---------------------------------------------------------------------------
// Get / Replace / Remove tests
// ---------------------------------------------------------------------------

func storedItem(t *testing.T, inst types.Instance) map[string]ddbtypes.AttributeValue {
	t.Helper()
	item, err := truthItem(inst)
	if err != nil {
		t.Fatalf("truthItem: %v", err)
	}
	return item
}

func TestGet_RoundTripAndNotFound(t *testing.T) {
	inst := sampleInstance()
	inst.ID = 7
	mock := &mockDDB{
		getItemFn: func(_ context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			if !aws.ToBool(input.ConsistentRead) {
				t.Error("expected consistent read")
			}
			if sVal(t, input.Key, "PK") == "INSTANCE#7" {
				return &dynamodb.GetItemOutput{Item: storedItem(t, inst)}, nil
			}
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	b := newTestBackend(mock)

	got, err := b.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != 7 || got.State != types.StateSilent || got.Hour != 6 || got.Minute != 45 {
		t.Errorf("got %+v", got)
	}

	_, err = b.Get(context.Background(), 8)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGet_CorruptStateRejected(t *testing.T) {
	inst := sampleInstance()
	inst.ID = 3
	mock := &mockDDB{
		getItemFn: func(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			item := storedItem(t, inst)
			item["state"] = &ddbtypes.AttributeValueMemberS{Value: "RINGING"}
			return &dynamodb.GetItemOutput{Item: item}, nil
		},
	}

	_, err := newTestBackend(mock).Get(context.Background(), 3)
	if !errors.Is(err, types.ErrInvalidInstance) {
		t.Errorf("err = %v, want ErrInvalidInstance", err)
	}
}

func TestReplace_MissingRowNeverCreates(t *testing.T) {
	var transacted bool
	mock := &mockDDB{
		transactWriteItemFn: func(_ context.Context, _ *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			transacted = true
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}
	inst := sampleInstance()
	inst.ID = 99

	err := newTestBackend(mock).Replace(context.Background(), inst)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if transacted {
		t.Error("Replace must not write a missing row")
	}
}

func TestReplace_ConditionRaceIsNotFound(t *testing.T) {
	inst := sampleInstance()
	inst.ID = 5
	mock := &mockDDB{
		getItemFn: func(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: storedItem(t, inst)}, nil
		},
		transactWriteItemFn: func(_ context.Context, input *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			if aws.ToString(input.TransactItems[0].Put.ConditionExpression) != "attribute_exists(PK)" {
				t.Errorf("condition = %q", aws.ToString(input.TransactItems[0].Put.ConditionExpression))
			}
			return nil, &ddbtypes.TransactionCanceledException{
				CancellationReasons: []ddbtypes.CancellationReason{{Code: aws.String("ConditionalCheckFailed")}},
			}
		},
	}

	inst.State = types.StateFired
	err := newTestBackend(mock).Replace(context.Background(), inst)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReplace_MovesStateIndex(t *testing.T) {
	inst := sampleInstance()
	inst.ID = 5
	var captured *dynamodb.TransactWriteItemsInput
	mock := &mockDDB{
		getItemFn: func(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: storedItem(t, inst)}, nil
		},
		transactWriteItemFn: func(_ context.Context, input *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = input
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}

	updated := inst
	updated.State = types.StateMissed
	if err := newTestBackend(mock).Replace(context.Background(), updated); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := sVal(t, captured.TransactItems[0].Put.Item, "GSI1PK"); got != "STATE#MISSED" {
		t.Errorf("GSI1PK = %q", got)
	}
	if len(captured.TransactItems) != 2 {
		t.Errorf("transact items = %d, want 2", len(captured.TransactItems))
	}
}

func TestRemove_MissingIsNoop(t *testing.T) {
	mock := &mockDDB{
		transactWriteItemFn: func(_ context.Context, _ *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			t.Error("unexpected write")
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}
	if err := newTestBackend(mock).Remove(context.Background(), 1); err != nil {
		t.Errorf("Remove: %v", err)
	}
}

func TestRemove_DeletesBothCopies(t *testing.T) {
	inst := sampleInstance()
	inst.ID = 9
	var captured *dynamodb.TransactWriteItemsInput
	mock := &mockDDB{
		getItemFn: func(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: storedItem(t, inst)}, nil
		},
		transactWriteItemFn: func(_ context.Context, input *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
			captured = input
			return &dynamodb.TransactWriteItemsOutput{}, nil
		},
	}

	if err := newTestBackend(mock).Remove(context.Background(), 9); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(captured.TransactItems) != 2 {
		t.Fatalf("transact items = %d, want 2", len(captured.TransactItems))
	}
	if got := sVal(t, captured.TransactItems[1].Delete.Key, "PK"); got != "ALARM#12" {
		t.Errorf("list copy PK = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Query tests
// ---------------------------------------------------------------------------

func TestListByAlarm_Paginates(t *testing.T) {
	first := sampleInstance()
	first.ID = 1
	second := sampleInstance()
	second.ID = 2

	calls := 0
	mock := &mockDDB{
		queryFn: func(_ context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			calls++
			if calls == 1 {
				return &dynamodb.QueryOutput{
					Items:            []map[string]ddbtypes.AttributeValue{storedItem(t, first)},
					LastEvaluatedKey: map[string]ddbtypes.AttributeValue{"PK": &ddbtypes.AttributeValueMemberS{Value: "x"}},
				}, nil
			}
			if input.ExclusiveStartKey == nil {
				t.Error("expected ExclusiveStartKey on second page")
			}
			return &dynamodb.QueryOutput{
				Items: []map[string]ddbtypes.AttributeValue{storedItem(t, second)},
			}, nil
		},
	}

	rows, err := newTestBackend(mock).ListByAlarm(context.Background(), 12)
	if err != nil {
		t.Fatalf("ListByAlarm: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != 1 || rows[1].ID != 2 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestListByState_UsesGSI(t *testing.T) {
	var captured *dynamodb.QueryInput
	mock := &mockDDB{
		queryFn: func(_ context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			captured = input
			return &dynamodb.QueryOutput{}, nil
		},
	}

	if _, err := newTestBackend(mock).ListByState(context.Background(), types.StateFired); err != nil {
		t.Fatalf("ListByState: %v", err)
	}
	if aws.ToString(captured.IndexName) != "GSI1" {
		t.Errorf("index = %q", aws.ToString(captured.IndexName))
	}
	if got := sVal(t, captured.ExpressionAttributeValues, ":pk"); got != "STATE#FIRED" {
		t.Errorf(":pk = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Lock conditional expression tests
// ---------------------------------------------------------------------------

func TestAcquireLock_Success(t *testing.T) {
	var captured *dynamodb.PutItemInput
	mock := &mockDDB{
		putItemFn: func(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			captured = input
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	ok, err := newTestBackend(mock).AcquireLock(context.Background(), "instance:4", 30*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if !ok {
		t.Error("expected lock to be acquired")
	}
	if aws.ToString(captured.ConditionExpression) != "attribute_not_exists(PK) OR #ttl < :now" {
		t.Errorf("condition = %q", aws.ToString(captured.ConditionExpression))
	}
	if got := sVal(t, captured.Item, "PK"); got != "LOCK#instance:4" {
		t.Errorf("PK = %q", got)
	}
}

func TestAcquireLock_StampsFromClock(t *testing.T) {
	var captured *dynamodb.PutItemInput
	mock := &mockDDB{
		putItemFn: func(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			captured = input
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	b := newTestBackend(mock)
	at := time.Unix(1_800_000_000, 0)
	b.SetClock(func() time.Time { return at })

	if _, err := b.AcquireLock(context.Background(), "insert:1:202606010730", 45*time.Second); err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	ttl, ok := captured.Item["ttl"].(*ddbtypes.AttributeValueMemberN)
	if !ok || ttl.Value != "1800000045" {
		t.Errorf("ttl = %+v, want 1800000045", captured.Item["ttl"])
	}
	now, ok := captured.ExpressionAttributeValues[":now"].(*ddbtypes.AttributeValueMemberN)
	if !ok || now.Value != "1800000000" {
		t.Errorf(":now = %+v, want 1800000000", captured.ExpressionAttributeValues[":now"])
	}
}

func TestAcquireLock_AlreadyHeld(t *testing.T) {
	mock := &mockDDB{
		putItemFn: func(_ context.Context, _ *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("held")}
		},
	}

	ok, err := newTestBackend(mock).AcquireLock(context.Background(), "instance:4", 30*time.Second)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if ok {
		t.Error("expected lock to be refused")
	}
}

// ---------------------------------------------------------------------------
// Settings tests
// ---------------------------------------------------------------------------

func TestSettings_FallbackWhenAbsent(t *testing.T) {
	src := newTestBackend(&mockDDB{}).Settings(types.DefaultSettings())

	got, err := src.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != types.DefaultSettings() {
		t.Errorf("got %+v, want defaults", got)
	}
}

func TestSettings_PutThenCurrent(t *testing.T) {
	var stored map[string]ddbtypes.AttributeValue
	mock := &mockDDB{
		putItemFn: func(_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			stored = input.Item
			return &dynamodb.PutItemOutput{}, nil
		},
		getItemFn: func(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{Item: stored}, nil
		},
	}
	src := newTestBackend(mock).Settings(types.DefaultSettings())

	want := types.DefaultSettings()
	want.SnoozeMinutes = 7
	want.Timeout = types.TimeoutNever
	if err := src.Put(context.Background(), want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := sVal(t, stored, "PK"); got != "SETTINGS" {
		t.Errorf("PK = %q", got)
	}

	got, err := src.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestPing_Error(t *testing.T) {
	mock := &mockDDB{
		describeTableFn: func(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			return nil, errors.New("no route")
		},
	}
	if err := newTestBackend(mock).Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}

func TestStart_CreatesTableIdempotently(t *testing.T) {
	mock := &mockDDB{
		createTableFn: func(_ context.Context, _ *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
			return nil, &ddbtypes.ResourceInUseException{Message: aws.String("exists")}
		},
	}
	b := NewFromClient(mock, "test-table", true)
	if err := b.Start(context.Background()); err != nil {
		t.Errorf("Start: %v", err)
	}
}
