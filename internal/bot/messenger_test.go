package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klucly/NeonasBot/internal/domain"
)

func TestSendEditsFreshMainMessage(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1, MainMessage: 7, MainMessageFresh: true})
	s := newTestService(api, Stores{Students: students})

	st, err := students.Get(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.send(ctx, st, screen{text: "hello"}))

	require.Len(t, api.edits, 1)
	assert.Equal(t, 7, api.edits[0].MessageID)
	assert.Equal(t, "hello", api.edits[0].Text)
	assert.Empty(t, api.messages, "a live main message must be edited, not re-sent")
}

func TestSendFallsBackWhenEditRejected(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{editErr: errors.New("Bad Request: message to edit not found")}
	students := newFakeStudents(domain.Student{ID: 1, MainMessage: 7, MainMessageFresh: true})
	s := newTestService(api, Stores{Students: students})

	st, err := students.Get(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.send(ctx, st, screen{text: "hello"}))

	require.Len(t, api.messages, 1)
	require.Len(t, api.deletes, 1)
	assert.Equal(t, 7, api.deletes[0].MessageID)

	got, err := students.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MainMessage, "slot must point at the replacement message")
	assert.True(t, got.MainMessageFresh)
}

func TestSendWithEmptySlotSendsFresh(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1})
	s := newTestService(api, Stores{Students: students})

	st, err := students.Get(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.send(ctx, st, screen{text: "hello"}))

	require.Len(t, api.messages, 1)
	assert.Empty(t, api.edits)
	assert.Empty(t, api.deletes)

	got, err := students.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MainMessage)
}

func TestSendRawMarksSlotStale(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1, MainMessage: 7, MainMessageFresh: true})
	s := newTestService(api, Stores{Students: students})

	st, err := students.Get(ctx, 1)
	require.NoError(t, err)
	id, err := s.sendRaw(ctx, st, screen{text: "notice"})
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	got, err := students.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, got.MainMessage, "a raw send must not steal the slot")
	assert.False(t, got.MainMessageFresh)

	// The next screen goes below the notification instead of editing above it.
	require.NoError(t, s.send(ctx, got, screen{text: "menu"}))
	assert.Empty(t, api.edits)
	require.Len(t, api.messages, 2)
}

func TestSendCancelsPendingInput(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	students := newFakeStudents(domain.Student{ID: 1, IsInputting: true, Continuation: contEnterName})
	s := newTestService(api, Stores{Students: students})

	st, err := students.Get(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, s.send(ctx, st, screen{text: "menu"}))

	got, err := students.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.IsInputting)
	assert.Empty(t, got.Continuation)
}
