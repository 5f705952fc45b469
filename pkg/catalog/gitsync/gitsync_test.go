package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"mercator-hq/procurement/pkg/catalog"
	"mercator-hq/procurement/pkg/config"
)

const sampleData = "../../../data"

// createCatalogRepo initializes a repository holding the sample catalog
// under catalog/.
func createCatalogRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	entries, err := os.ReadDir(sampleData)
	if err != nil {
		t.Fatalf("failed to read sample data: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "catalog"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(sampleData, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		writeFile(t, dir, filepath.Join("catalog", e.Name()), string(data))
	}
	commitAll(t, repo, "initial catalog")

	return dir, repo
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func commitAll(t *testing.T, repo *gogit.Repository, msg string) {
	t.Helper()

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if err := worktree.AddGlob("."); err != nil {
		t.Fatalf("failed to add files: %v", err)
	}
	_, err = worktree.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func branchOf(t *testing.T, repo *gogit.Repository) string {
	t.Helper()
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to get HEAD: %v", err)
	}
	return head.Name().Short()
}

func gitConfig(t *testing.T, remote, branch string) *config.CatalogGitConfig {
	return &config.CatalogGitConfig{
		Enabled:    true,
		Repository: remote,
		Branch:     branch,
		Path:       "catalog",
		LocalPath:  filepath.Join(t.TempDir(), "clone"),
		Timeout:    10 * time.Second,
		Auth:       config.GitAuthConfig{Type: "none"},
	}
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.CatalogGitConfig
		wantErr bool
	}{
		{"nil config", nil, true},
		{"empty repository", &config.CatalogGitConfig{Branch: "main", LocalPath: "/tmp/x"}, true},
		{"empty branch", &config.CatalogGitConfig{Repository: "https://example.com/c.git", LocalPath: "/tmp/x"}, true},
		{"empty local path", &config.CatalogGitConfig{Repository: "https://example.com/c.git", Branch: "main"}, true},
		{"token without token", &config.CatalogGitConfig{
			Repository: "https://example.com/c.git", Branch: "main", LocalPath: "/tmp/x",
			Auth: config.GitAuthConfig{Type: "token"},
		}, true},
		{"valid", &config.CatalogGitConfig{
			Repository: "https://example.com/c.git", Branch: "main", LocalPath: "/tmp/x",
			Auth: config.GitAuthConfig{Type: "none"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepository(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && repo.auth.Type() != "none" {
				t.Errorf("Expected none auth, got %s", repo.auth.Type())
			}
		})
	}
}

func TestNewAuthProvider(t *testing.T) {
	tests := []struct {
		cfg      config.GitAuthConfig
		wantType string
		wantErr  bool
	}{
		{config.GitAuthConfig{}, "none", false},
		{config.GitAuthConfig{Type: "none"}, "none", false},
		{config.GitAuthConfig{Type: "token", Token: "ghp_x"}, "token", false},
		{config.GitAuthConfig{Type: "token"}, "", true},
		{config.GitAuthConfig{Type: "ssh", SSHKeyPath: "/keys/id"}, "ssh", false},
		{config.GitAuthConfig{Type: "ssh"}, "", true},
		{config.GitAuthConfig{Type: "kerberos"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.cfg.Type, func(t *testing.T) {
			p, err := NewAuthProvider(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAuthProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", p.Type(), tt.wantType)
			}
		})
	}
}

func TestSSHAuth_RejectsOpenPermissions(t *testing.T) {
	key := filepath.Join(t.TempDir(), "id_test")
	if err := os.WriteFile(key, []byte("not a key"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewSSHAuth(key, "").GetAuth()
	if err == nil || !strings.Contains(err.Error(), "permissions too open") {
		t.Errorf("Expected permissions error, got %v", err)
	}

	if _, err := NewSSHAuth(filepath.Join(t.TempDir(), "missing"), "").GetAuth(); err == nil {
		t.Error("Expected error for missing key file")
	}
}

func TestTokenAuth(t *testing.T) {
	auth, err := NewTokenAuth("secret").GetAuth()
	if err != nil {
		t.Fatalf("GetAuth failed: %v", err)
	}
	if auth.Name() != "http-basic-auth" {
		t.Errorf("Expected http-basic-auth, got %s", auth.Name())
	}
	if _, err := NewTokenAuth("").GetAuth(); err == nil {
		t.Error("Expected error for empty token")
	}
}

func TestRepository_CloneAndReopen(t *testing.T) {
	remote, origin := createCatalogRepo(t)
	cfg := gitConfig(t, remote, branchOf(t, origin))

	repo, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head.Message != "initial catalog" {
		t.Errorf("Expected initial commit, got %q", head.Message)
	}

	store, err := catalog.Load(repo.CatalogPath())
	if err != nil {
		t.Fatalf("catalog.Load of clone failed: %v", err)
	}
	if store.Stats().Departments != 5 {
		t.Errorf("Expected 5 departments, got %d", store.Stats().Departments)
	}

	// A second Clone opens the existing checkout.
	again, err := NewRepository(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := again.Clone(context.Background()); err != nil {
		t.Fatalf("Clone of existing checkout failed: %v", err)
	}
	reopened, err := again.Head()
	if err != nil {
		t.Fatal(err)
	}
	if reopened.SHA != head.SHA {
		t.Errorf("Expected %s after reopen, got %s", head.SHA, reopened.SHA)
	}
}

func TestRepository_PullUninitialized(t *testing.T) {
	repo, err := NewRepository(gitConfig(t, "https://example.com/c.git", "main"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Pull(context.Background()); err == nil {
		t.Error("Expected error pulling before Clone")
	}
	if _, err := repo.Head(); err == nil {
		t.Error("Expected error reading HEAD before Clone")
	}
}

func TestRepository_TouchesCatalog(t *testing.T) {
	repo := &Repository{config: &config.CatalogGitConfig{Path: "catalog"}}
	root := &Repository{config: &config.CatalogGitConfig{}}

	tests := []struct {
		name  string
		repo  *Repository
		files []string
		want  bool
	}{
		{"catalog json", repo, []string{"catalog/products.json"}, true},
		{"catalog yaml", repo, []string{"catalog/catalog.YAML"}, true},
		{"readme only", repo, []string{"README.md", "catalog/notes.txt"}, false},
		{"json outside path", repo, []string{"other/products.json"}, false},
		{"prefix lookalike", repo, []string{"catalog-old/products.json"}, false},
		{"root path", root, []string{"products.json"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.repo.TouchesCatalog(tt.files); got != tt.want {
				t.Errorf("TouchesCatalog(%v) = %v, want %v", tt.files, got, tt.want)
			}
		})
	}
}

func TestSyncer_Sync(t *testing.T) {
	ctx := context.Background()
	remote, origin := createCatalogRepo(t)

	repo, err := NewRepository(gitConfig(t, remote, branchOf(t, origin)))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Clone(ctx); err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	source, err := catalog.NewSource(repo.CatalogPath())
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	syncer := NewSyncer(repo, source, time.Minute)

	// Nothing new upstream.
	changed, err := syncer.Sync(ctx)
	if err != nil || changed {
		t.Fatalf("Expected no change, got %v, %v", changed, err)
	}
	initial := syncer.Loaded()

	// A catalog change is reloaded.
	depts, err := os.ReadFile(filepath.Join(remote, "catalog", "departments.json"))
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, remote, "catalog/departments.json",
		strings.Replace(string(depts), `"monthlyBudget": 50000`, `"monthlyBudget": 60000`, 1))
	commitAll(t, origin, "raise IT budget")

	changed, err = syncer.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if !changed {
		t.Fatal("Expected catalog reload")
	}
	it, err := source.Department("IT")
	if err != nil {
		t.Fatal(err)
	}
	if it.MonthlyBudget.String() != "60000" {
		t.Errorf("Expected IT budget 60000, got %s", it.MonthlyBudget)
	}
	if syncer.Loaded() == initial {
		t.Error("Expected loaded commit to advance")
	}

	// A non-catalog change is pulled without reloading.
	reloads := source.Reloads()
	writeFile(t, remote, "README.md", "catalog repository\n")
	commitAll(t, origin, "add readme")

	changed, err = syncer.Sync(ctx)
	if err != nil || changed {
		t.Fatalf("Expected no reload for README change, got %v, %v", changed, err)
	}
	if source.Reloads() != reloads {
		t.Errorf("Expected %d reloads, got %d", reloads, source.Reloads())
	}

	// A broken catalog is rejected and the previous snapshot keeps serving.
	loaded := syncer.Loaded()
	writeFile(t, remote, "catalog/products.json", "{not json")
	commitAll(t, origin, "break products")

	changed, err = syncer.Sync(ctx)
	if err == nil {
		t.Fatal("Expected error for broken catalog")
	}
	if changed {
		t.Error("Expected no reload for broken catalog")
	}
	if syncer.Failures() != 1 {
		t.Errorf("Expected 1 failure, got %d", syncer.Failures())
	}
	if syncer.Loaded() != loaded {
		t.Error("Expected loaded commit to stay on the last good commit")
	}
	if syncer.Head() == loaded {
		t.Error("Expected head to move to the rejected commit")
	}
	if _, err := source.Product("P001"); err != nil {
		t.Errorf("Expected previous snapshot to keep serving: %v", err)
	}
}

func TestSyncer_RunRequiresInterval(t *testing.T) {
	s := NewSyncer(&Repository{config: &config.CatalogGitConfig{}}, nil, 0)
	if err := s.Run(context.Background()); err == nil {
		t.Error("Expected error for zero interval")
	}
}
