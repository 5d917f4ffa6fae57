package store

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinestream.app/cinebot/internal/locale"
)

func TestEnsureSeededEnglish(t *testing.T) {
	c := NewConversation()

	assert.True(t, c.EnsureSeeded(locale.EN))

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleModel, msgs[0].Role)
	assert.Equal(t, locale.For(locale.EN).Greeting, msgs[0].Text)
	assert.NotEmpty(t, msgs[0].ID)
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	c := NewConversation()

	c.EnsureSeeded(locale.FR)
	assert.False(t, c.EnsureSeeded(locale.FR))
	assert.False(t, c.EnsureSeeded(locale.EN))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, locale.For(locale.FR).Greeting, c.Messages()[0].Text)
}

func TestEnsureSeededSkipsNonEmptyLog(t *testing.T) {
	c := NewConversation()
	c.Append(NewMessage(RoleUser, "bonjour"))

	assert.False(t, c.EnsureSeeded(locale.FR))
	assert.Equal(t, 1, c.Len())
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	c := NewConversation()
	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		role := RoleUser
		if i%2 == 1 {
			role = RoleModel
		}
		c.Append(NewMessage(role, text))
	}

	var got []string
	for msg := range c.All() {
		got = append(got, msg.Text)
	}
	assert.Equal(t, texts, got)
}

func TestAllIsASnapshot(t *testing.T) {
	c := NewConversation()
	c.Append(NewMessage(RoleUser, "first"))

	seq := c.All()
	c.Append(NewMessage(RoleModel, "second"))

	assert.Len(t, slices.Collect(seq), 1)
	assert.Len(t, slices.Collect(c.All()), 2)
}

func TestMessagesReturnsACopy(t *testing.T) {
	c := NewConversation()
	c.Append(NewMessage(RoleUser, "original"))

	msgs := c.Messages()
	msgs[0].Text = "mutated"

	assert.Equal(t, "original", c.Messages()[0].Text)
}

func TestSubscribeReceivesAppends(t *testing.T) {
	c := NewConversation()
	c.EnsureSeeded(locale.EN)

	ch, cancel := c.Subscribe()
	defer cancel()

	msg := NewMessage(RoleUser, "comedy")
	c.Append(msg)

	got := <-ch
	assert.Equal(t, msg, got)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	c := NewConversation()
	ch, cancel := c.Subscribe()

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Appends after detaching must not panic on the closed channel.
	c.Append(NewMessage(RoleUser, "after"))
	assert.Equal(t, 1, c.Len())
}

func TestSlowSubscriberDoesNotBlockAppend(t *testing.T) {
	c := NewConversation()
	_, cancel := c.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer*2; i++ {
		c.Append(NewMessage(RoleUser, "spam"))
	}
	assert.Equal(t, subscriberBuffer*2, c.Len())
}
