package call

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aira-ai/control-tower/internal/fsm"
)

// fakeDynamoClient keeps items in memory keyed by callId and serves one-page
// scans, which is all the repository needs.
type fakeDynamoClient struct {
	items   map[string]map[string]types.AttributeValue
	scanErr error
}

func newFakeDynamoClient() *fakeDynamoClient {
	return &fakeDynamoClient{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamoClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key, ok := in.Item["callId"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing callId attribute")
	}
	f.items[key.Value] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	key, ok := in.Key["callId"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing callId key")
	}
	item, ok := f.items[key.Value]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoClient) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func TestDynamoRepositoryRoundTrip(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewDynamoRepository(client, "aira-calls", nil)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c := testCall("c1", start)
	require.NoError(t, repo.Save(ctx, c))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.SessionID, got.SessionID)
	assert.Equal(t, c.Status, got.Status)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, c.Turns[0].Text, got.Turns[0].Text)
}

func TestDynamoRepositoryGetMissing(t *testing.T) {
	repo := NewDynamoRepository(newFakeDynamoClient(), "aira-calls", nil)
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoRepositorySaveRejectsMissingID(t *testing.T) {
	repo := NewDynamoRepository(newFakeDynamoClient(), "aira-calls", nil)
	assert.Error(t, repo.Save(context.Background(), &Call{}))
}

func TestDynamoRepositoryListFilters(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewDynamoRepository(client, "aira-calls", nil)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	active := testCall("active", base)
	ended := testCall("ended", base.Add(time.Minute))
	end := base.Add(10 * time.Minute)
	ended.Status = fsm.CallStatusCompleted
	ended.EndTime = &end
	ended.ExitReason = fsm.ExitReasonCompleted

	require.NoError(t, repo.Save(ctx, active))
	require.NoError(t, repo.Save(ctx, ended))

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ended", all[0].ID)

	status := fsm.CallStatusActive
	actives, err := repo.List(ctx, Filter{Status: &status})
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, "active", actives[0].ID)
}

func TestDynamoRepositoryListScanError(t *testing.T) {
	client := newFakeDynamoClient()
	client.scanErr = errors.New("throttled")
	repo := NewDynamoRepository(client, "aira-calls", nil)

	_, err := repo.List(context.Background(), Filter{})
	assert.Error(t, err)
}

func TestDynamoRepositoryItemShape(t *testing.T) {
	client := newFakeDynamoClient()
	repo := NewDynamoRepository(client, "aira-calls", nil)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(context.Background(), testCall("c1", start)))

	item := client.items["c1"]
	require.NotNil(t, item)
	var decoded Call
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	assert.Equal(t, "c1", decoded.ID)
}
