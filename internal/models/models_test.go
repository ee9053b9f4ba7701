package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func validList() ListConfig {
	return ListConfig{
		ID:          "8501",
		Enabled:     true,
		Name:        "Weekend Picks",
		Kind:        ListMovie,
		TargetCount: 10,
		AttachedData: map[string]AttachedSource{
			SourceWatchHistory: {ItemCount: 25, MediaKind: "movie"},
		},
	}
}

func TestListConfigValidate(t *testing.T) {
	tc := []struct {
		name    string
		mutate  func(*ListConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*ListConfig) {}},
		{name: "missing name", mutate: func(l *ListConfig) { l.Name = "" }, wantErr: "Name"},
		{name: "unknown kind", mutate: func(l *ListConfig) { l.Kind = "anime" }, wantErr: "Kind"},
		{name: "zero target", mutate: func(l *ListConfig) { l.TargetCount = 0 }, wantErr: "TargetCount"},
		{
			name: "unknown source",
			mutate: func(l *ListConfig) {
				l.AttachedData["ratings"] = AttachedSource{ItemCount: 1}
			},
			wantErr: "AttachedData",
		},
		{
			name: "bad media kind",
			mutate: func(l *ListConfig) {
				l.AttachedData[SourceWatchlist] = AttachedSource{ItemCount: 1, MediaKind: "anime"}
			},
			wantErr: "MediaKind",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			l := validList()
			tt.mutate(&l)
			err := l.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestListFile(t *testing.T) {
	t.Run("round trip keeps key order", func(t *testing.T) {
		f := ListFile{}
		for _, id := range []string{"30", "10", "20"} {
			l := validList()
			l.ID = id
			l.Name = "list " + id
			f.Put(l)
		}

		data, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}

		var got ListFile
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}

		if len(got.Lists) != 3 {
			t.Fatalf("expected 3 lists, got %d", len(got.Lists))
		}
		for i, id := range []string{"30", "10", "20"} {
			if got.Lists[i].ID != id {
				t.Errorf("position %d: got id %s, want %s", i, got.Lists[i].ID, id)
			}
		}
		if got.Lists[1].Name != "list 10" {
			t.Errorf("expected name to survive, got %q", got.Lists[1].Name)
		}
	})

	t.Run("decodes stored document", func(t *testing.T) {
		doc := `{
			"version": 1,
			"lists": {
				"b": {"enabled": false, "name": "Shows", "kind": "show", "target_count": 5,
				      "attached_data": {"watchlist": {"item_count": 3, "random": true}},
				      "ai_prompt_suffix": "no reality tv"},
				"a": {"enabled": true, "name": "Mix", "kind": "combined", "target_count": 8}
			}
		}`

		var f ListFile
		if err := json.Unmarshal([]byte(doc), &f); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if len(f.Lists) != 2 || f.Lists[0].ID != "b" || f.Lists[1].ID != "a" {
			t.Fatalf("unexpected lists %+v", f.Lists)
		}
		if !f.Lists[0].AttachedData[SourceWatchlist].Random {
			t.Error("expected watchlist source to be random")
		}
		if f.Lists[0].PromptSuffix != "no reality tv" {
			t.Errorf("unexpected suffix %q", f.Lists[0].PromptSuffix)
		}
	})

	t.Run("put replaces in place, rekey keeps position", func(t *testing.T) {
		f := ListFile{}
		for _, id := range []string{"1", "2", "3"} {
			l := validList()
			l.ID = id
			f.Put(l)
		}

		replacement := validList()
		replacement.ID = "2"
		replacement.DisplayName = "Generated"
		f.Put(replacement)

		if len(f.Lists) != 3 || f.Lists[1].Title() != "Generated" {
			t.Fatalf("Put should replace in place, got %+v", f.Lists)
		}

		if !f.Rekey("2", "99") || f.Lists[1].ID != "99" {
			t.Errorf("Rekey should keep position, got %+v", f.Lists)
		}

		if !f.Remove("1") || len(f.Lists) != 2 {
			t.Errorf("Remove should drop one list, got %+v", f.Lists)
		}
		if f.Remove("missing") {
			t.Error("Remove of unknown id should report false")
		}
	})
}

func TestNormalizeKind(t *testing.T) {
	tc := map[string]string{
		"movie":   KindMovie,
		"Movie":   KindMovie,
		"tvshow":  KindShow,
		"tv":      KindShow,
		"tv_show": KindShow,
		"show":    KindShow,
		"person":  "",
		"":        "",
	}
	for in, want := range tc {
		t.Run(in, func(t *testing.T) {
			if got := NormalizeKind(in); got != want {
				t.Errorf("NormalizeKind(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestCredential(t *testing.T) {
	c := Credential{Provider: ProviderCatalog, Token: "tok"}
	tok, err := c.TokenSource().Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != "tok" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}
	if (Credential{}).Present() {
		t.Error("empty credential should not be present")
	}
}
