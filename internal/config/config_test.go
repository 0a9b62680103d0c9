package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Backend != "rest" {
		t.Errorf("Backend = %q, want rest", cfg.Backend)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.DatabaseID != "aora" {
		t.Errorf("DatabaseID = %q, want aora", cfg.DatabaseID)
	}
	if cfg.VideoCollectionID != "videos" {
		t.Errorf("VideoCollectionID = %q, want videos", cfg.VideoCollectionID)
	}
	if cfg.Devstack.ObjectStore.Bucket != "aora-media" {
		t.Errorf("ObjectStore.Bucket = %q, want aora-media", cfg.Devstack.ObjectStore.Bucket)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("AORA_BACKEND", "devstack")
	t.Setenv("AORA_ENDPOINT", "https://cloud.example.com/v1")
	t.Setenv("AORA_PROJECT_ID", "aora-prod")
	t.Setenv("AORA_DEVSTACK_DATABASE_URL", "postgres://app@db:5432/aora")
	t.Setenv("AORA_DEVSTACK_OBJECT_STORE_REGION", "eu-west-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Backend != "devstack" {
		t.Errorf("Backend = %q, want devstack", cfg.Backend)
	}
	if cfg.Endpoint != "https://cloud.example.com/v1" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.ProjectID != "aora-prod" {
		t.Errorf("ProjectID = %q", cfg.ProjectID)
	}
	if cfg.Devstack.DatabaseURL != "postgres://app@db:5432/aora" {
		t.Errorf("DatabaseURL = %q", cfg.Devstack.DatabaseURL)
	}
	if cfg.Devstack.ObjectStore.Region != "eu-west-1" {
		t.Errorf("ObjectStore.Region = %q", cfg.Devstack.ObjectStore.Region)
	}
}
