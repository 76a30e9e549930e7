package domain

import "testing"

func TestConfigRepr_TryMergeAsset_CopiesDescriptionNotName(t *testing.T) {
	repr := ConfigRepr{Name: "new-name", Description: "new description", JSONConfig: []byte(`{"k":1}`)}
	asset := Config{ConfigID: 7, AssetGroupID: 1, Name: "old-name", Description: "old description", JSONConfig: "{}"}

	if err := repr.TryMergeAsset(&asset); err != nil {
		t.Fatalf("TryMergeAsset: %v", err)
	}

	if asset.Description != "new description" {
		t.Fatalf("expected description to come from repr.Description, got %q", asset.Description)
	}
	if asset.Name != "new-name" {
		t.Fatalf("expected name updated too, got %q", asset.Name)
	}
	if asset.ConfigID != 7 {
		t.Fatalf("expected ConfigID preserved across merge, got %d", asset.ConfigID)
	}
}

func TestServiceRepr_TryMergeAsset_LeavesHealthUntouched(t *testing.T) {
	repr := ServiceRepr{Address: "a:1", Name: "svc", ServiceType: ServiceTypeProcessor}
	asset := Service{ServiceID: 3, Address: "old:1", Name: "old", ServiceType: ServiceTypeInput, Health: HealthHealthy}

	cfgID := int32(9)
	if err := repr.TryMergeAsset(&asset, &cfgID); err != nil {
		t.Fatalf("TryMergeAsset: %v", err)
	}

	if asset.Health != HealthHealthy {
		t.Fatalf("expected health_status untouched by sync merge, got %s", asset.Health)
	}
	if asset.ServiceType != ServiceTypeProcessor {
		t.Fatalf("expected service_type updated, got %s", asset.ServiceType)
	}
	if asset.ConfigID == nil || *asset.ConfigID != 9 {
		t.Fatalf("expected config id resolved to 9, got %v", asset.ConfigID)
	}
}

func TestServiceType_Valid(t *testing.T) {
	cases := map[ServiceType]bool{
		ServiceTypeInput:     true,
		ServiceTypeOutput:    true,
		ServiceTypeProcessor: true,
		ServiceTypeNone:      true,
		ServiceType("Bogus"): false,
	}
	for st, want := range cases {
		if got := st.Valid(); got != want {
			t.Errorf("ServiceType(%q).Valid() = %v, want %v", st, got, want)
		}
	}
}

func TestParseHealthStatus_RejectsUnknown(t *testing.T) {
	if _, err := ParseHealthStatus("Flaky"); err == nil {
		t.Fatal("expected error for unknown health status")
	}
	hs, err := ParseHealthStatus("Warning")
	if err != nil || hs != HealthWarning {
		t.Fatalf("expected Warning, got %v, %v", hs, err)
	}
}
