package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelectBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id", "shortname").From("tournament_classes").
		Where(
			Eq("tournament_id_ext", "t1"),
			IsNull("parent_class_id"),
		).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT id, shortname FROM tournament_classes WHERE tournament_id_ext = $1 AND parent_class_id IS NULL ORDER BY id LIMIT 10"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"t1"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestSelectBuilderEmptyIn(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").From("players").
		Where(In("id", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	if query != "SELECT id FROM players WHERE 1=0" {
		t.Fatalf("query = %q", query)
	}
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
}

func TestInsertBuilderWithSuffix(t *testing.T) {
	t.Parallel()

	query, args, err := InsertInto("players").
		Columns("fullname_key", "is_verified").
		Values("nils lennebratt", true).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "INSERT INTO players (fullname_key, is_verified) VALUES ($1, $2) RETURNING id"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	t.Parallel()

	query, args, err := Update("raw_class_matches").
		Set("needs_resolve", false).
		Where(In("source_key", []any{"a", "b"})).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "UPDATE raw_class_matches SET needs_resolve = $1 WHERE source_key IN ($2, $3)"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{false, "a", "b"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestDeleteBuilderRequiresWhere(t *testing.T) {
	t.Parallel()

	if _, _, err := DeleteFrom("matches").ToSQL(); err == nil {
		t.Fatal("expected error for delete without conditions")
	}

	query, args, err := DeleteFrom("matches").Where(Eq("class_id", int64(7))).ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	if query != "DELETE FROM matches WHERE class_id = $1" {
		t.Fatalf("query = %q", query)
	}
	if !reflect.DeepEqual(args, []any{int64(7)}) {
		t.Fatalf("args = %v", args)
	}
}

func TestInsertModel(t *testing.T) {
	t.Parallel()

	model := struct {
		SourceKey   string `db:"source_key"`
		ContentHash string `db:"content_hash"`
		Ignored     string `db:"-"`
	}{SourceKey: "k", ContentHash: "h", Ignored: "x"}

	query, args, err := InsertModel("raw_player_licenses", model, "")
	if err != nil {
		t.Fatalf("InsertModel error: %v", err)
	}
	want := "INSERT INTO raw_player_licenses (source_key, content_hash) VALUES ($1, $2)"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"k", "h"}) {
		t.Fatalf("args = %v", args)
	}
}
