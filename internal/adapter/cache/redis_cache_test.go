package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/evently/internal/core/domain"
)

func TestGetInventory_Miss(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)
	eventID := uuid.New()

	mockRedis.ExpectGet(inventoryKey(eventID)).RedisNil()

	inv, err := c.GetInventory(context.Background(), eventID)

	assert.NoError(t, err)
	assert.Nil(t, inv)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestGetInventory_Hit(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)
	eventID := uuid.New()

	mockRedis.ExpectGet(inventoryKey(eventID)).
		SetVal(`{"event_id":"` + eventID.String() + `","seats_available":4,"seats_reserved":6,"version":9}`)

	inv, err := c.GetInventory(context.Background(), eventID)

	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, eventID, inv.EventID)
	assert.Equal(t, 4, inv.SeatsAvailable)
	assert.Equal(t, 6, inv.SeatsReserved)
	assert.Equal(t, int64(9), inv.Version)
}

func TestGetInventory_CorruptEntryIsMiss(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)
	eventID := uuid.New()

	mockRedis.ExpectGet(inventoryKey(eventID)).SetVal("not-json")

	inv, err := c.GetInventory(context.Background(), eventID)

	assert.NoError(t, err)
	assert.Nil(t, inv)
}

func TestSetInventory(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, 30*time.Second)
	eventID := uuid.New()

	mockRedis.ExpectSet(inventoryKey(eventID),
		`{"event_id":"`+eventID.String()+`","seats_available":1,"seats_reserved":2,"version":3}`,
		30*time.Second).SetVal("OK")

	err := c.SetInventory(context.Background(), &domain.Inventory{EventID: eventID, SeatsAvailable: 1, SeatsReserved: 2, Version: 3})

	assert.NoError(t, err)
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestInvalidate(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)
	eventID := uuid.New()

	mockRedis.ExpectDel(snapshotKey, inventoryKey(eventID)).SetVal(2)

	assert.NoError(t, c.Invalidate(context.Background(), eventID))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestInvalidate_Error(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)

	mockRedis.ExpectDel(snapshotKey).SetErr(errors.New("connection refused"))

	assert.ErrorContains(t, c.Invalidate(context.Background()), "connection refused")
}

func TestSnapshot_RoundTripThroughRedisValue(t *testing.T) {
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)

	total := int64(3)
	util := 0.3
	refreshed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	eventID := uuid.New()
	payload := `[{"event_id":"` + eventID.String() + `","name":"gig","capacity":10,"total_booked":3,"utilization":0.3,"refreshed_at":"2026-01-02T03:04:05Z"}]`

	mockRedis.ExpectSet(snapshotKey, payload, time.Minute).SetVal("OK")
	require.NoError(t, c.SetSnapshot(context.Background(), []domain.EventStats{{
		EventID: eventID, Name: "gig", Capacity: 10, TotalBooked: &total, Utilization: &util, RefreshedAt: refreshed,
	}}))

	mockRedis.ExpectGet(snapshotKey).SetVal(payload)
	rows, err := c.GetSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), *rows[0].TotalBooked)
	assert.True(t, refreshed.Equal(rows[0].RefreshedAt))
	assert.NoError(t, mockRedis.ExpectationsWereMet())
}
