package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindUnderSubscribed, "not fully subscribed")
	assert.Equal(t, KindUnderSubscribed, KindOf(err))

	// Wrapped errors still expose their kind.
	wrapped := fmt.Errorf("settle note 7: %w", err)
	assert.Equal(t, KindUnderSubscribed, KindOf(wrapped))

	// Unknown errors fall back to storage.
	assert.Equal(t, KindStorage, KindOf(errors.New("boom")))
}

func TestIs(t *testing.T) {
	err := New(KindNotFound, "missing")
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindCompliance))
	assert.False(t, Is(errors.New("boom"), KindNotFound))
}

func TestDetails(t *testing.T) {
	err := Newf(KindUnderSubscribed, "short by %d", 300).
		WithDetails(map[string]interface{}{"shortfall": int64(300)})
	details := DetailsOf(err)
	assert.EqualValues(t, 300, details["shortfall"])

	assert.Nil(t, DetailsOf(errors.New("boom")))
}

func TestWrapMessageAndUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := Wrap(KindStorage, "failed to load note", inner)
	assert.Equal(t, "failed to load note: connection reset", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:    400,
		KindInvalidAmount:   400,
		KindOfferingNotOpen: 400,
		KindAlreadySettled:  400,
		KindUnderSubscribed: 400,
		KindNoPendingOrders: 400,
		KindCompliance:      403,
		KindNotFound:        404,
		KindStorage:         500,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(New(kind, "x")), string(kind))
	}
	assert.Equal(t, 500, HTTPStatus(errors.New("boom")))
}
