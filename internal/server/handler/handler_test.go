package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/klinechart/internal/chart"
	"github.com/alanyoungcy/klinechart/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("load: %w", domain.ErrColumnLength), http.StatusUnprocessableEntity},
		{domain.ErrTimeOrder, http.StatusUnprocessableEntity},
		{domain.ErrAPIContract, http.StatusUnprocessableEntity},
		{chart.ErrNoRealPrices, http.StatusUnprocessableEntity},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestETag(t *testing.T) {
	a := ETag([]byte("a"))
	assert.Len(t, a, 66)
	assert.Equal(t, a, ETag([]byte("a")))
	assert.NotEqual(t, a, ETag([]byte("b")))
}

func TestNotModified(t *testing.T) {
	etag := ETag([]byte("x"))
	req := func(h string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/series", nil)
		if h != "" {
			r.Header.Set("If-None-Match", h)
		}
		return r
	}

	assert.False(t, notModified(req(""), etag))
	assert.True(t, notModified(req(etag), etag))
	assert.True(t, notModified(req(`"other", `+etag), etag))
	assert.True(t, notModified(req("W/"+etag), etag))
	assert.True(t, notModified(req("*"), etag))
	assert.False(t, notModified(req(`"other"`), etag))
}
