package store_test

import (
	"context"
	"testing"
	"time"

	"warbell/src-server/model"
	"warbell/src-server/store"

	"github.com/google/uuid"
)

func TestRSVPRegistryMutualExclusion(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))
	registry := store.NewRSVPRegistry(eventStore)

	eventModel := testEvent(model.CategoryGuild, time.Now().Add(2*time.Hour).Unix())
	if _, err := eventStore.Create(ctx, eventModel); err != nil {
		t.Fatal(err)
	}
	userID := uuid.NewString()

	if !registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionTank) {
		t.Fatal("set tank should succeed")
	}

	// case: switching moves the member, never duplicates it
	func() {
		if !registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionDPS) {
			t.Fatal("switch to dps should succeed")
		}
		dispositions, err := registry.DispositionsOf(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(dispositions[model.DispositionTank]) != 0 {
			t.Error("member still listed under tank after switching")
		}
		if len(dispositions[model.DispositionDPS]) != 1 {
			t.Error("member not listed under dps", dispositions[model.DispositionDPS])
		}
	}()

	// case: setting the held disposition again is idempotent
	func() {
		if !registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionDPS) {
			t.Fatal("re-set should succeed")
		}
		dispositions, err := registry.DispositionsOf(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(dispositions[model.DispositionDPS]) != 1 {
			t.Error("re-set duplicated the member", dispositions[model.DispositionDPS])
		}
	}()

	// case: a disposition outside the category set is rejected
	func() {
		if registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionYes) {
			t.Error("yes does not belong to a VFS event")
		}
	}()

	// case: unknown event
	func() {
		if registry.SetDisposition(ctx, uuid.NewString(), userID, model.DispositionTank) {
			t.Error("set on an unknown event should report false")
		}
	}()
}

func TestRSVPRegistryClearOutcomes(t *testing.T) {
	ctx := context.Background()
	eventStore := store.NewEventStore(newTestDB(t))
	registry := store.NewRSVPRegistry(eventStore)

	eventModel := testEvent(model.CategoryGuildWars, time.Now().Add(2*time.Hour).Unix())
	if _, err := eventStore.Create(ctx, eventModel); err != nil {
		t.Fatal(err)
	}
	userID := uuid.NewString()

	// case: clearing an unregistered member is a no-op
	func() {
		outcome, _ := registry.ClearDisposition(ctx, eventModel.ID, userID, model.DispositionYes)
		if outcome != store.ClearNoOp {
			t.Error("expected ClearNoOp, got", outcome)
		}
	}()

	// case: clearing the held disposition unregisters fully
	func() {
		registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionYes)
		outcome, _ := registry.ClearDisposition(ctx, eventModel.ID, userID, model.DispositionYes)
		if outcome != store.ClearFully {
			t.Error("expected ClearFully, got", outcome)
		}
		dispositions, err := registry.DispositionsOf(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(dispositions[model.DispositionYes]) != 0 {
			t.Error("member still registered after full clear")
		}
	}()

	// case: mid-switch, the stale remove signal must not unregister.
	// The member reacts yes, then maybe; the remove signal for yes arrives
	// after the switch already happened.
	func() {
		registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionYes)
		registry.SetDisposition(ctx, eventModel.ID, userID, model.DispositionMaybe)
		outcome, remainsAs := registry.ClearDisposition(ctx, eventModel.ID, userID, model.DispositionYes)
		if outcome != store.ClearStillRegistered {
			t.Error("expected ClearStillRegistered, got", outcome)
		}
		if remainsAs != model.DispositionMaybe {
			t.Error("member should remain registered as maybe, got", remainsAs)
		}
		dispositions, err := registry.DispositionsOf(ctx, eventModel.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(dispositions[model.DispositionMaybe]) != 1 {
			t.Error("mid-switch clear dropped the member", dispositions)
		}
	}()

	// case: unknown event
	func() {
		outcome, _ := registry.ClearDisposition(ctx, uuid.NewString(), userID, model.DispositionYes)
		if outcome != store.ClearNoOp {
			t.Error("clear on an unknown event should be a no-op, got", outcome)
		}
	}()
}
