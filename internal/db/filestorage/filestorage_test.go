package filestorage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jayjaytrn/URLMapper/internal/types"
)

func TestManager_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "urls.jsonl")

	fm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	first, err := fm.Insert(ctx, "http://a.com", "aaaaaa")
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	second, _ := fm.Insert(ctx, "http://b.com", "bbbbbb")
	if _, err = fm.Update(ctx, first, "http://a2.com"); err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if err = fm.Delete(ctx, second); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	reopened, err := NewManager(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}

	list, _ := reopened.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 mapping after reopen, got %+v", list)
	}
	if list[0].ID != first || list[0].LongURL != "http://a2.com" || list[0].ShortCode != "aaaaaa" {
		t.Fatalf("unexpected mapping after reopen: %+v", list[0])
	}

	// the deleted id must not be handed out again
	third, _ := reopened.Insert(ctx, "http://c.com", "cccccc")
	if third <= second {
		t.Fatalf("expected id greater than %d, got %d", second, third)
	}
}

func TestManager_ConflictLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "urls.jsonl")
	fm, _ := NewManager(path)

	if _, err := fm.Insert(ctx, "http://a.com", "aaaaaa"); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	before, _ := os.ReadFile(path)

	_, err := fm.Insert(ctx, "http://b.com", "aaaaaa")
	var conflict *types.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	after, _ := os.ReadFile(path)
	if string(before) != string(after) {
		t.Fatalf("file changed on failed insert")
	}
}

func TestManager_WriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fm, _ := NewManager(filepath.Join(dir, "urls.jsonl"))

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("cannot remove dir: %v", err)
	}

	if _, err := fm.Insert(ctx, "http://a.com", "aaaaaa"); err == nil {
		t.Fatal("expected insert to fail without a directory")
	}
	if exists, _ := fm.Exists(ctx, "aaaaaa"); exists {
		t.Fatal("failed insert must not be visible")
	}
	if err := fm.Ping(ctx); err == nil {
		t.Fatal("expected ping to fail without a directory")
	}
}

func TestNewManager_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Fatal("expected error for corrupt storage file")
	}
}

func TestNewManager_UnorderedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "urls.jsonl")
	content := `{"last_id":7}
{"id":5,"longurl":"http://e.com","shorturl":"eeeeee"}
{"id":2,"longurl":"http://b.com","shorturl":"bbbbbb"}
{"id":7,"longurl":"http://g.com","shorturl":"gggggg"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}

	for _, id := range []int64{2, 5, 7} {
		if got, err := fm.FindByID(ctx, id); err != nil || got.ID != id {
			t.Errorf("FindByID(%d) = %+v, %v", id, got, err)
		}
	}
	if err = fm.Delete(ctx, 5); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	list, _ := fm.List(ctx)
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 7 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestNewManager_DuplicateRecords(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "duplicate id",
			content: `{"last_id":2}
{"id":1,"longurl":"http://a.com","shorturl":"aaaaaa"}
{"id":1,"longurl":"http://b.com","shorturl":"bbbbbb"}
`,
		},
		{
			name: "duplicate code",
			content: `{"last_id":2}
{"id":1,"longurl":"http://a.com","shorturl":"aaaaaa"}
{"id":2,"longurl":"http://b.com","shorturl":"aaaaaa"}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "urls.jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewManager(path); err == nil {
				t.Fatal("expected error for inconsistent storage file")
			}
		})
	}
}
