package types

import "testing"

func TestChatParamsValidate(t *testing.T) {
	if errs := (&ChatParams{Message: "What is the limitation period?"}).Validate(); errs != nil {
		t.Errorf("valid params rejected: %v", errs)
	}
	if errs := (&ChatParams{CaseID: 7}).Validate(); errs == nil {
		t.Error("missing message must fail validation")
	} else if _, ok := errs["Message"]; !ok {
		t.Errorf("expected Message error, got %v", errs)
	}
}

func TestCaseIntakeParamsValidate(t *testing.T) {
	if errs := (&CaseIntakeParams{CaseText: "tenant dispute"}).Validate(); errs != nil {
		t.Errorf("valid params rejected: %v", errs)
	}
	if errs := (&CaseIntakeParams{ClientID: 1}).Validate(); errs == nil {
		t.Error("missing case text must fail validation")
	}
}

func TestConfigValidate(t *testing.T) {
	good := Config{ChunkSize: 1200, ChunkOverlap: 200, BatchSize: 16}
	if err := good.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := []Config{
		{ChunkSize: 0, ChunkOverlap: 0, BatchSize: 16},
		{ChunkSize: 100, ChunkOverlap: 100, BatchSize: 16},
		{ChunkSize: 100, ChunkOverlap: -1, BatchSize: 16},
		{ChunkSize: 1200, ChunkOverlap: 200, BatchSize: 0},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("config %d should be rejected: %+v", i, cfg)
		}
	}
}
