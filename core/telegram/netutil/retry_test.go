package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"server error", &StatusError{Code: 502}, true},
		{"too many requests", fmt.Errorf("post: %w", &StatusError{Code: 429}), true},
		{"client error", &StatusError{Code: 400}, false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"timeout", timeoutErr{}, true},
		{"url wrapping timeout", &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}}, true},
		{"url wrapping cancel", &url.Error{Op: "Post", URL: "http://x", Err: context.Canceled}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "unexpected status 500", (&StatusError{Code: 500}).Error())
	assert.Equal(t, "unexpected status 404: missing", (&StatusError{Code: 404, Body: "missing"}).Error())
}
