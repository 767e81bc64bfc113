package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/junnakarai/bankpocket/internal/store"
)

func mustAccount(t *testing.T, s *Service, bank string) *store.Account {
	t.Helper()
	a, err := s.CreateAccount(context.Background(), bank, "", "", "")
	if err != nil {
		t.Fatalf("CreateAccount(%q) error = %v", bank, err)
	}
	return a
}

func mustTag(t *testing.T, s *Service, name, color string) *store.Tag {
	t.Helper()
	tag, err := s.CreateTag(context.Background(), name, color)
	if err != nil {
		t.Fatalf("CreateTag(%q) error = %v", name, err)
	}
	return tag
}

func tagIDs(t *testing.T, s *Service, accountID uuid.UUID) map[uuid.UUID]bool {
	t.Helper()
	tags, err := s.AccountTags(context.Background(), accountID)
	if err != nil {
		t.Fatalf("AccountTags() error = %v", err)
	}
	ids := make(map[uuid.UUID]bool, len(tags))
	for _, tg := range tags {
		ids[tg.ID] = true
	}
	return ids
}

// checkSymmetry verifies the bidirectional invariant for one account:
// the tags reachable from the account equal the set of tags whose
// account lists contain it.
func checkSymmetry(t *testing.T, s *Service, accountID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	forward := tagIDs(t, s, accountID)

	allTags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags() error = %v", err)
	}
	backward := make(map[uuid.UUID]bool)
	for _, tg := range allTags {
		accounts, err := s.Store().AccountsForTag(ctx, tg.ID)
		if err != nil {
			t.Fatalf("AccountsForTag() error = %v", err)
		}
		for _, a := range accounts {
			if a.ID == accountID {
				backward[tg.ID] = true
			}
		}
	}

	if len(forward) != len(backward) {
		t.Fatalf("symmetry broken: forward %d tags, backward %d", len(forward), len(backward))
	}
	for id := range forward {
		if !backward[id] {
			t.Fatalf("symmetry broken: tag %s reachable only from the account side", id)
		}
	}
}

func TestAddTag(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	tag := mustTag(t, s, "貯金", "#96CEB4")

	if err := s.AddTag(ctx, a.ID, tag.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}

	ids := tagIDs(t, s, a.ID)
	if !ids[tag.ID] {
		t.Error("tag not associated after AddTag")
	}
	checkSymmetry(t, s, a.ID)
}

func TestAddTag_ExistingPairIsNoOp(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	tag := mustTag(t, s, "貯金", "#96CEB4")

	if err := s.AddTag(ctx, a.ID, tag.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}
	if err := s.AddTag(ctx, a.ID, tag.ID); err != nil {
		t.Fatalf("second AddTag() error = %v", err)
	}

	assocs, err := s.Store().AssociationsForAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("AssociationsForAccount() error = %v", err)
	}
	if len(assocs) != 1 {
		t.Errorf("association count = %d, want 1", len(assocs))
	}
}

func TestAddTag_DanglingReferences(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	tag := mustTag(t, s, "貯金", "#96CEB4")

	if err := s.AddTag(ctx, uuid.New(), tag.ID); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("AddTag(missing account) = %v, want %v", err, ErrAccountNotFound)
	}
	if err := s.AddTag(ctx, a.ID, uuid.New()); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("AddTag(missing tag) = %v, want %v", err, ErrTagNotFound)
	}
}

func TestRemoveTag(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	tag := mustTag(t, s, "貯金", "#96CEB4")
	keep := mustTag(t, s, "仕事", "#45B7D1")

	if err := s.AddTag(ctx, a.ID, tag.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}
	if err := s.AddTag(ctx, a.ID, keep.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}

	if err := s.RemoveTag(ctx, a.ID, tag.ID); err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}

	ids := tagIDs(t, s, a.ID)
	if ids[tag.ID] {
		t.Error("tag still associated after RemoveTag")
	}
	if !ids[keep.ID] {
		t.Error("unrelated tag lost by RemoveTag")
	}
	checkSymmetry(t, s, a.ID)

	// Removing a pair that is not associated is a no-op.
	if err := s.RemoveTag(ctx, a.ID, tag.ID); err != nil {
		t.Errorf("second RemoveTag() error = %v", err)
	}
}

func TestReplaceTags(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	t1 := mustTag(t, s, "私", "#FF6B6B")
	t2 := mustTag(t, s, "家族", "#4ECDC4")
	t3 := mustTag(t, s, "仕事", "#45B7D1")

	if err := s.ReplaceTags(ctx, a.ID, []uuid.UUID{t1.ID, t2.ID}); err != nil {
		t.Fatalf("ReplaceTags() error = %v", err)
	}

	if err := s.ReplaceTags(ctx, a.ID, []uuid.UUID{t2.ID, t3.ID}); err != nil {
		t.Fatalf("second ReplaceTags() error = %v", err)
	}

	ids := tagIDs(t, s, a.ID)
	if ids[t1.ID] || !ids[t2.ID] || !ids[t3.ID] {
		t.Errorf("tag set after replace = %v, want {%s, %s}", ids, t2.ID, t3.ID)
	}
	checkSymmetry(t, s, a.ID)
}

func TestReplaceTags_Idempotent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	t1 := mustTag(t, s, "私", "#FF6B6B")
	t2 := mustTag(t, s, "家族", "#4ECDC4")

	desired := []uuid.UUID{t1.ID, t2.ID}
	if err := s.ReplaceTags(ctx, a.ID, desired); err != nil {
		t.Fatalf("ReplaceTags() error = %v", err)
	}

	first, err := s.Store().AssociationsForAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("AssociationsForAccount() error = %v", err)
	}

	if err := s.ReplaceTags(ctx, a.ID, desired); err != nil {
		t.Fatalf("second ReplaceTags() error = %v", err)
	}

	second, err := s.Store().AssociationsForAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("AssociationsForAccount() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("association count changed: %d -> %d", len(first), len(second))
	}
	byID := make(map[uuid.UUID]*store.Association, len(first))
	for _, assoc := range first {
		byID[assoc.ID] = assoc
	}
	for _, assoc := range second {
		orig, ok := byID[assoc.ID]
		if !ok {
			t.Fatalf("association %s recreated by idempotent replace", assoc.ID)
		}
		if !assoc.CreatedAt.Equal(orig.CreatedAt) {
			t.Errorf("association %s creation time changed", assoc.ID)
		}
	}
}

func TestReplaceTags_PreservesSurvivorCreationTime(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	base := time.Date(2025, 9, 18, 12, 0, 0, 0, time.Local)
	s.now = func() time.Time { return base }

	a := mustAccount(t, s, "みずほ銀行")
	t1 := mustTag(t, s, "私", "#FF6B6B")
	t2 := mustTag(t, s, "家族", "#4ECDC4")

	if err := s.AddTag(ctx, a.ID, t1.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Hour) }
	if err := s.ReplaceTags(ctx, a.ID, []uuid.UUID{t1.ID, t2.ID}); err != nil {
		t.Fatalf("ReplaceTags() error = %v", err)
	}

	assocs, err := s.Store().AssociationsForAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("AssociationsForAccount() error = %v", err)
	}
	for _, assoc := range assocs {
		switch assoc.TagID {
		case t1.ID:
			if !assoc.CreatedAt.Equal(base) {
				t.Errorf("surviving association CreatedAt = %v, want %v", assoc.CreatedAt, base)
			}
		case t2.ID:
			if !assoc.CreatedAt.Equal(base.Add(time.Hour)) {
				t.Errorf("new association CreatedAt = %v, want %v", assoc.CreatedAt, base.Add(time.Hour))
			}
		}
	}
}

func TestDeleteTag_CascadesOnlyItsAssociations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a1 := mustAccount(t, s, "みずほ銀行")
	a2 := mustAccount(t, s, "三井住友銀行")
	doomed := mustTag(t, s, "緊急時", "#FF9FF3")
	keep := mustTag(t, s, "貯金", "#96CEB4")

	for _, accID := range []uuid.UUID{a1.ID, a2.ID} {
		if err := s.AddTag(ctx, accID, doomed.ID); err != nil {
			t.Fatalf("AddTag() error = %v", err)
		}
		if err := s.AddTag(ctx, accID, keep.ID); err != nil {
			t.Fatalf("AddTag() error = %v", err)
		}
	}

	if err := s.DeleteTag(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteTag() error = %v", err)
	}

	for _, accID := range []uuid.UUID{a1.ID, a2.ID} {
		ids := tagIDs(t, s, accID)
		if ids[doomed.ID] {
			t.Error("deleted tag still associated")
		}
		if !ids[keep.ID] {
			t.Error("remaining tag set changed by unrelated delete")
		}
		checkSymmetry(t, s, accID)
	}
}

func TestDeleteAccount_CascadesAssociations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	tag := mustTag(t, s, "貯金", "#96CEB4")
	if err := s.AddTag(ctx, a.ID, tag.ID); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}

	if err := s.DeleteAccount(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	accounts, err := s.Store().AccountsForTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("AccountsForTag() error = %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("tag still references %d accounts after delete", len(accounts))
	}
}

func TestAssociationSequenceKeepsSymmetry(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustAccount(t, s, "みずほ銀行")
	t1 := mustTag(t, s, "私", "#FF6B6B")
	t2 := mustTag(t, s, "家族", "#4ECDC4")
	t3 := mustTag(t, s, "仕事", "#45B7D1")

	steps := []func() error{
		func() error { return s.AddTag(ctx, a.ID, t1.ID) },
		func() error { return s.AddTag(ctx, a.ID, t2.ID) },
		func() error { return s.RemoveTag(ctx, a.ID, t1.ID) },
		func() error { return s.ReplaceTags(ctx, a.ID, []uuid.UUID{t1.ID, t3.ID}) },
		func() error { return s.RemoveTag(ctx, a.ID, t3.ID) },
		func() error { return s.ReplaceTags(ctx, a.ID, nil) },
	}

	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
		checkSymmetry(t, s, a.ID)
	}
}
