package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawJSONScan(t *testing.T) {
	var j RawJSON
	require.NoError(t, j.Scan(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, string(j))

	require.NoError(t, j.Scan([]byte(`[1,2]`)))
	assert.Equal(t, `[1,2]`, string(j))

	require.NoError(t, j.Scan(nil))
	assert.True(t, j.IsNull())

	assert.Error(t, j.Scan(42))
}

func TestRawJSONEmbedsInDocument(t *testing.T) {
	g := Goal{ID: "g1", Content: RawJSON(`{"notes":"hi"}`)}
	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"content":{"notes":"hi"}`)

	var back Goal
	require.NoError(t, json.Unmarshal(out, &back))
	assert.JSONEq(t, `{"notes":"hi"}`, string(back.Content))
}

func TestTranscriptionMediaItems(t *testing.T) {
	tr := &Transcription{Media: RawJSON(`[{"type":"image","url":"/uploads/a.png"}]`)}
	items := tr.MediaItems()
	require.Len(t, items, 1)
	assert.Equal(t, MediaTypeImage, items[0].Type)

	tr.Media = RawJSON(`not json`)
	assert.Empty(t, tr.MediaItems())
}

func TestSubscriptionFormatPrice(t *testing.T) {
	amount := 500
	yearly := SubscriptionIntervalYearly
	s := &Subscription{Amount: &amount, Currency: "usd", Interval: &yearly}
	assert.Equal(t, "$5.00/year", s.FormatPrice())

	s.Amount = nil
	assert.Empty(t, s.FormatPrice())
}

func TestUserName(t *testing.T) {
	u := &User{Username: "ada"}
	assert.Equal(t, "ada", u.Name())
	u.DisplayName = "Ada L."
	assert.Equal(t, "Ada L.", u.Name())
}
