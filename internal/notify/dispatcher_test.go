package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	tests := map[string]struct {
		status  int
		wantErr bool
	}{
		"2xx is success":            {status: http.StatusOK, wantErr: false},
		"202 accepted is success":   {status: http.StatusAccepted, wantErr: false},
		"4xx is a failure":          {status: http.StatusBadRequest, wantErr: true},
		"5xx is a failure":          {status: http.StatusInternalServerError, wantErr: true},
		"redirect-ish is a failure": {status: http.StatusNotModified, wantErr: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var (
				gotBody        []byte
				gotContentType string
			)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotBody, _ = io.ReadAll(r.Body)
				gotContentType = r.Header.Get("Content-Type")
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			payload := []byte(`{"result_id":"r1","parent_name":"Asha","personality":"curious_builder"}`)
			err := send(context.Background(), srv.Client(), srv.URL, payload)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload, gotBody)
			assert.Equal(t, "application/json", gotContentType)
		})
	}
}

func TestSend_UnreachableMailer(t *testing.T) {
	err := send(context.Background(), &http.Client{}, "http://127.0.0.1:1", []byte(`{}`))
	require.Error(t, err)
}
