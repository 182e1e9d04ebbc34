package companystore_test

import (
	"testing"

	companystore "github.com/jackson-sweet/opsapp-sub003/internal/app/store/companies"
	"github.com/jackson-sweet/opsapp-sub003/internal/testutil"
)

func TestMergeFromRemote_StoresRawStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := companystore.New(db)
	c := testutil.CompanyFixture("c-1", 5, "u-1")
	c.SubscriptionStatus = "some-future-status"
	merged, err := s.MergeFromRemote(ctx, c)
	if err != nil {
		t.Fatalf("MergeFromRemote failed: %v", err)
	}
	// Unrecognized statuses are kept raw; parsing happens at decision time.
	if merged.SubscriptionStatus != "some-future-status" {
		t.Errorf("raw status: got %q", merged.SubscriptionStatus)
	}
	if _, ok := merged.Subscription(); ok {
		t.Error("unknown status must parse as absent")
	}
}

func TestReplaceSeats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := companystore.New(db)
	if _, err := s.MergeFromRemote(ctx, testutil.CompanyFixture("c-1", 5, "u-1", "u-2")); err != nil {
		t.Fatalf("MergeFromRemote failed: %v", err)
	}

	if err := s.ReplaceSeats(ctx, "c-1", []string{"u-1", "u-3"}); err != nil {
		t.Fatalf("ReplaceSeats failed: %v", err)
	}

	got, err := s.GetByCompanyID(ctx, "c-1")
	if err != nil {
		t.Fatalf("GetByCompanyID failed: %v", err)
	}
	want := []string{"u-1", "u-3"}
	if len(got.SeatedEmployeeIDs) != len(want) {
		t.Fatalf("seats: got %v, want %v", got.SeatedEmployeeIDs, want)
	}
	for i := range want {
		if got.SeatedEmployeeIDs[i] != want[i] {
			t.Fatalf("seats: got %v, want %v", got.SeatedEmployeeIDs, want)
		}
	}
}
