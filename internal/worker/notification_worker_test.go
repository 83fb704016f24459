package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anjo/internal/amqp"
	"anjo/internal/log"
	"anjo/internal/notify"
)

type failingSink struct{ calls int }

func (f *failingSink) Emit(context.Context, notify.Notification) error {
	f.calls++
	return errors.New("disk full")
}

func message(id string) *amqp.NotificationMessage {
	return &amqp.NotificationMessage{
		ID:        id,
		Owner:     "user-1",
		Title:     "Goal reached",
		Message:   "You reached \"Viagem\"!",
		Kind:      "success",
		Date:      time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		Timestamp: time.Now(),
	}
}

func TestHandleDeliversToSink(t *testing.T) {
	inbox := notify.NewInbox(0)
	w := NewNotificationWorker(inbox, log.Discard())

	require.NoError(t, w.Handle(context.Background(), message("n1")))

	got := inbox.List("user-1")
	require.Len(t, got, 1)
	assert.Equal(t, "Goal reached", got[0].Title)
	assert.Equal(t, notify.KindSuccess, got[0].Kind)
	assert.False(t, got[0].Read)
}

func TestHandleSkipsRedeliveries(t *testing.T) {
	inbox := notify.NewInbox(0)
	w := NewNotificationWorker(inbox, log.Discard())

	require.NoError(t, w.Handle(context.Background(), message("n1")))
	require.NoError(t, w.Handle(context.Background(), message("n1")))
	require.NoError(t, w.Handle(context.Background(), message("n2")))

	assert.Len(t, inbox.List("user-1"), 2)
	delivered, skipped := w.Stats()
	assert.Equal(t, int64(2), delivered)
	assert.Equal(t, int64(1), skipped)
}

func TestHandleSinkFailureIsRetried(t *testing.T) {
	sink := &failingSink{}
	w := NewNotificationWorker(sink, log.Discard())

	assert.Error(t, w.Handle(context.Background(), message("n1")))
	assert.Error(t, w.Handle(context.Background(), message("n1")), "a failed delivery must not be remembered")
	assert.Equal(t, 2, sink.calls)
}

type fakeAck struct{ acked, requeued, rejected int }

func (a *fakeAck) Ack(bool) error { a.acked++; return nil }
func (a *fakeAck) Nack(_ bool, requeue bool) error {
	if requeue {
		a.requeued++
	} else {
		a.rejected++
	}
	return nil
}

func TestDispatchThroughWorker(t *testing.T) {
	w := NewNotificationWorker(notify.NewInbox(0), log.Discard())
	body, err := message("n1").ToJSON()
	require.NoError(t, err)

	ack := &fakeAck{}
	amqp.Dispatch(context.Background(), log.Discard(), body, ack, w.Handle)
	amqp.Dispatch(context.Background(), log.Discard(), []byte(`{"id":""}`), ack, w.Handle)
	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, 1, ack.rejected)

	failing := NewNotificationWorker(&failingSink{}, log.Discard())
	amqp.Dispatch(context.Background(), log.Discard(), body, ack, failing.Handle)
	assert.Equal(t, 1, ack.requeued)
}
