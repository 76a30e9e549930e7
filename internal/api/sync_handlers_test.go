package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store/storetest"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/sync"
)

func newTestServer() (*Server, *storetest.Fake) {
	gw := storetest.New()
	gw.SeedAssetGroup(domain.AssetGroup{AssetGroupID: 1, Name: "g1"})
	syncSvc := sync.New(gw, nil)
	s := NewServer(":0", gw, syncSvc, nil, 0, 0)
	return s, gw
}

func TestHandleUpload_CreatesServicesAndConfigs(t *testing.T) {
	s, gw := newTestServer()

	body := domain.SystemRepr{
		AssetGroupID: 1,
		Configs: []domain.ConfigRepr{
			{Name: "cfg-a", Description: "a config", JSONConfig: []byte(`{"key":"value"}`)},
		},
		Services: []domain.ServiceRepr{
			{Address: "localhost:100", Name: "svc-a", ServiceType: domain.ServiceTypeInput, ConfigName: strPtr("cfg-a")},
		},
	}
	buf, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/sync/upload/", bytes.NewReader(buf))
	rr := httptest.NewRecorder()
	s.handleUpload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	svc, err := gw.FindServiceByAddress(req.Context(), 1, "localhost:100")
	if err != nil {
		t.Fatalf("FindServiceByAddress: %v", err)
	}
	if svc.ConfigID == nil {
		t.Fatal("expected service to have a resolved config id")
	}
}

func TestHandleUpload_RejectsUnknownConfigReference(t *testing.T) {
	s, _ := newTestServer()

	body := domain.SystemRepr{
		AssetGroupID: 1,
		Services: []domain.ServiceRepr{
			{Address: "localhost:100", Name: "svc-a", ServiceType: domain.ServiceTypeInput, ConfigName: strPtr("missing")},
		},
	}
	buf, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/sync/upload/", bytes.NewReader(buf))
	rr := httptest.NewRecorder()
	s.handleUpload(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleDownload_RoundTripsUploadedState(t *testing.T) {
	s, _ := newTestServer()

	upload := domain.SystemRepr{
		AssetGroupID: 1,
		Services: []domain.ServiceRepr{
			{Address: "localhost:100", Name: "svc-a", ServiceType: domain.ServiceTypeInput, OutputAddresses: []string{"localhost:200"}},
			{Address: "localhost:200", Name: "svc-b", ServiceType: domain.ServiceTypeOutput},
		},
	}
	buf, _ := json.Marshal(upload)
	uploadReq := httptest.NewRequest(http.MethodPost, "/sync/upload/", bytes.NewReader(buf))
	uploadRR := httptest.NewRecorder()
	s.handleUpload(uploadRR, uploadReq)
	if uploadRR.Code != http.StatusOK {
		t.Fatalf("upload failed: %d %s", uploadRR.Code, uploadRR.Body.String())
	}

	dlBody, _ := json.Marshal(getGroupRequest{AssetGroupID: 1})
	dlReq := httptest.NewRequest(http.MethodGet, "/sync/download/", bytes.NewReader(dlBody))
	dlRR := httptest.NewRecorder()
	s.handleDownload(dlRR, dlReq)

	if dlRR.Code != http.StatusOK {
		t.Fatalf("download failed: %d %s", dlRR.Code, dlRR.Body.String())
	}

	var got domain.SystemRepr
	if err := json.Unmarshal(dlRR.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(got.Services))
	}

	var input domain.ServiceRepr
	for _, svc := range got.Services {
		if svc.Address == "localhost:100" {
			input = svc
		}
	}
	if len(input.OutputAddresses) != 1 || input.OutputAddresses[0] != "localhost:200" {
		t.Fatalf("expected output edge to localhost:200, got %v", input.OutputAddresses)
	}
}

func strPtr(s string) *string { return &s }
