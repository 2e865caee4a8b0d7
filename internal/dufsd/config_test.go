package dufsd

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.URIPrefix != "/" {
		t.Errorf("default URIPrefix = %q; want /", cfg.URIPrefix)
	}
	if cfg.PathPrefix != "/" {
		t.Errorf("default PathPrefix = %q; want /", cfg.PathPrefix)
	}
	if cfg.RootPath != "." {
		t.Errorf("default RootPath = %q; want .", cfg.RootPath)
	}
	if cfg.BindAddr != ":5000" {
		t.Errorf("default BindAddr = %q; want :5000", cfg.BindAddr)
	}
}

func TestLoadConfigNormalizesURIPrefix(t *testing.T) {
	cfg, err := LoadConfig([]string{"-uri-prefix", "files"})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.URIPrefix != "/files/" {
		t.Errorf("URIPrefix = %q; want /files/", cfg.URIPrefix)
	}
	if cfg.PathPrefix != "/files" {
		t.Errorf("PathPrefix = %q; want /files", cfg.PathPrefix)
	}
}

func TestLoadConfigHiddenCSV(t *testing.T) {
	cfg, err := LoadConfig([]string{"-hidden", "*.log,node_modules/"})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Hidden) != 2 || cfg.Hidden[0] != "*.log" || cfg.Hidden[1] != "node_modules/" {
		t.Errorf("Hidden = %v; want [*.log node_modules/]", cfg.Hidden)
	}
}

func TestConfigGuardSelectsPermission(t *testing.T) {
	cfg := &Config{}
	cfg.normalize()
	g := cfg.Guard()
	if _, ok := g.(OpenGuard); !ok {
		t.Fatalf("an unauthenticated config must yield an OpenGuard, got %T", g)
	}
	if g.(OpenGuard).Perm != ReadOnly {
		t.Error("a config without allow_upload/allow_delete must grant ReadOnly")
	}

	cfg.AllowUpload = true
	cfg.AuthUser = "alice"
	g = cfg.Guard()
	bg, ok := g.(*BasicAuthGuard)
	if !ok {
		t.Fatalf("a config with auth_user must yield a BasicAuthGuard, got %T", g)
	}
	if bg.Perm != ReadWrite {
		t.Error("a config with allow_upload must grant ReadWrite")
	}
}
