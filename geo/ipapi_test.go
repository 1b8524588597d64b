// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

package geo

import (
	"context"
	"net/http"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIPAPIURL = "http://ip-api.test"

func newMockedLocator(t *testing.T) *IPAPILocator {
	l := NewIPAPILocator(
		WithBaseURL(testIPAPIURL),
		withBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)
	httpmock.ActivateNonDefault(l.Client().GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return l
}

func jsonResponse(status int, body any) *http.Response {
	resp, err := httpmock.NewJsonResponse(status, body)
	if err != nil {
		panic(err)
	}
	return resp
}

func TestIPAPILocate(t *testing.T) {
	tests := []struct {
		name      string
		host      string
		responder httpmock.Responder
		wantCoord Coordinate
		wantFound bool
		wantErr   bool
		wantCalls int
	}{
		{
			name:      "success",
			host:      "8.8.8.8",
			responder: httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"status": "success", "lat": 37.751, "lon": -97.822}),
			wantCoord: Coordinate{Latitude: 37.751, Longitude: -97.822},
			wantFound: true,
			wantCalls: 1,
		},
		{
			name:      "port is stripped",
			host:      "8.8.8.8:53",
			responder: httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"status": "success", "lat": 1.5, "lon": 2.5}),
			wantCoord: Coordinate{Latitude: 1.5, Longitude: 2.5},
			wantFound: true,
			wantCalls: 1,
		},
		{
			name:      "private range",
			host:      "8.8.8.8",
			responder: httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{"status": "fail", "message": "private range"}),
			wantCalls: 1,
		},
		{
			name: "server errors are retried",
			host: "8.8.8.8",
			responder: httpmock.ResponderFromMultipleResponses([]*http.Response{
				httpmock.NewStringResponse(http.StatusBadGateway, ""),
				httpmock.NewStringResponse(http.StatusBadGateway, ""),
				jsonResponse(http.StatusOK, map[string]any{"status": "success", "lat": 3.0, "lon": 4.0}),
			}),
			wantCoord: Coordinate{Latitude: 3, Longitude: 4},
			wantFound: true,
			wantCalls: 3,
		},
		{
			name:      "retries give up",
			host:      "8.8.8.8",
			responder: httpmock.NewStringResponder(http.StatusServiceUnavailable, ""),
			wantErr:   true,
			wantCalls: 3,
		},
		{
			name:      "client errors are permanent",
			host:      "8.8.8.8",
			responder: httpmock.NewStringResponder(http.StatusForbidden, "forbidden"),
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "garbage body",
			host:      "8.8.8.8",
			responder: httpmock.NewStringResponder(http.StatusOK, "<html>"),
			wantErr:   true,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newMockedLocator(t)
			httpmock.RegisterResponder(http.MethodGet, testIPAPIURL+"/json/"+StripPort(tt.host), tt.responder)

			coord, found, err := l.Locate(context.Background(), tt.host)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantCoord, coord)
			assert.Equal(t, tt.wantCalls, httpmock.GetTotalCallCount())
		})
	}
}

func TestIPAPIRequestsOnlyNeededFields(t *testing.T) {
	l := newMockedLocator(t)
	var gotFields string
	httpmock.RegisterResponder(http.MethodGet, testIPAPIURL+"/json/1.1.1.1",
		func(req *http.Request) (*http.Response, error) {
			gotFields = req.URL.Query().Get("fields")
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"status": "success", "lat": 1, "lon": 1})
		})

	_, _, err := l.Locate(context.Background(), "1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "status,message,lat,lon", gotFields)
}

func TestIPAPIEmptyHost(t *testing.T) {
	l := newMockedLocator(t)
	_, _, err := l.Locate(context.Background(), "")
	require.Error(t, err)
	assert.Zero(t, httpmock.GetTotalCallCount())
}
