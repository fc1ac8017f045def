package objectstore

import (
	"context"
	"reflect"
	"testing"
)

func TestJoinKey(t *testing.T) {
	cases := []struct {
		parts []string
		want  string
	}{
		{[]string{"registry", "file.parquet"}, "registry/file.parquet"},
		{[]string{"", "file.parquet"}, "file.parquet"},
		{[]string{"a", "b", "c.json"}, "a/b/c.json"},
		{[]string{"a/", "/b"}, "a/b"},
	}
	for _, tc := range cases {
		if got := JoinKey(tc.parts...); got != tc.want {
			t.Errorf("JoinKey(%v) = %q, want %q", tc.parts, got, tc.want)
		}
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	t.Run("bucket lifecycle", func(t *testing.T) {
		exists, err := store.BucketExists(ctx, "bkt")
		if err != nil || exists {
			t.Fatalf("BucketExists before create = %v, %v", exists, err)
		}
		if err := store.EnsureBucket(ctx, "bkt"); err != nil {
			t.Fatalf("EnsureBucket: %v", err)
		}
		exists, err = store.BucketExists(ctx, "bkt")
		if err != nil || !exists {
			t.Fatalf("BucketExists after create = %v, %v", exists, err)
		}
	})

	t.Run("put and get", func(t *testing.T) {
		payload := []byte("hello")
		if err := store.PutObject(ctx, "bkt", "registry/a/b.txt", payload); err != nil {
			t.Fatalf("PutObject: %v", err)
		}
		got, err := store.GetObject(ctx, "bkt", "registry/a/b.txt")
		if err != nil {
			t.Fatalf("GetObject: %v", err)
		}
		if string(got) != "hello" {
			t.Errorf("GetObject = %q", got)
		}
	})

	t.Run("missing object is a typed not-found", func(t *testing.T) {
		_, err := store.GetObject(ctx, "bkt", "registry/missing.txt")
		if err == nil {
			t.Fatal("expected an error")
		}
		if !IsNotFound(err) {
			t.Errorf("IsNotFound = false for %v", err)
		}
		e, ok := err.(*Error)
		if !ok || e.Code != CodeObjectNotFound {
			t.Errorf("error = %#v, want code %s", err, CodeObjectNotFound)
		}
		if e.RetryableStatus() {
			t.Errorf("not-found should not be retryable")
		}
	})

	t.Run("list prefix sorted", func(t *testing.T) {
		for _, key := range []string{"p/z.txt", "p/a.txt", "q/b.txt"} {
			if err := store.PutObject(ctx, "bkt", key, []byte("x")); err != nil {
				t.Fatal(err)
			}
		}
		keys, err := store.ListPrefix(ctx, "bkt", "p/")
		if err != nil {
			t.Fatalf("ListPrefix: %v", err)
		}
		if !reflect.DeepEqual(keys, []string{"p/a.txt", "p/z.txt"}) {
			t.Errorf("keys = %v", keys)
		}

		keys, err = store.ListPrefix(ctx, "bkt", "nope/")
		if err != nil || len(keys) != 0 {
			t.Errorf("missing prefix: keys=%v err=%v", keys, err)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		if err := store.PutObject(ctx, "bkt", "del.txt", []byte("x")); err != nil {
			t.Fatal(err)
		}
		if err := store.DeleteObject(ctx, "bkt", "del.txt"); err != nil {
			t.Fatalf("DeleteObject: %v", err)
		}
		if err := store.DeleteObject(ctx, "bkt", "del.txt"); err != nil {
			t.Errorf("second delete: %v", err)
		}
		if _, err := store.GetObject(ctx, "bkt", "del.txt"); !IsNotFound(err) {
			t.Errorf("object still readable after delete")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if err := store.PutObject(cancelled, "bkt", "k", []byte("x")); err == nil {
			t.Errorf("write with cancelled context should fail")
		}
	})
}
