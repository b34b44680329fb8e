package notionsync

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/store/memory"
)

type fakeNotion struct {
	pages    []notionapi.Page
	created  []notionapi.Properties
	updated  map[string]notionapi.Properties
	archived []string
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID("page-new")}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.updated == nil {
		f.updated = make(map[string]notionapi.Properties)
	}
	f.updated[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages, HasMore: false}, nil
}

func (f *fakeNotion) ArchivePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func pageWithTransactionID(pageID, txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			"Transaction ID": &notionapi.TitleProperty{
				Title: []notionapi.RichText{{PlainText: txID}},
			},
		},
	}
}

// pageForTransaction builds a page mirroring the transaction the way the
// Notion API returns it, with pointer-typed properties.
func pageForTransaction(pageID string, tx domain.Transaction) notionapi.Page {
	page := pageWithTransactionID(pageID, tx.ID)
	page.Properties["Amount"] = &notionapi.NumberProperty{Number: float64(tx.Amount)}
	page.Properties["Type"] = &notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Type)}}
	page.Properties["Category"] = &notionapi.SelectProperty{Select: notionapi.Option{Name: tx.Category}}
	page.Properties["Description"] = &notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{PlainText: tx.Description}},
	}
	return page
}

func TestSyncTransactionsCreatesMissingPages(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	persisted, err := st.InsertTransaction(ctx, domain.NewTransaction{
		Description: "Gaji bulanan",
		Amount:      5000000,
		Type:        domain.TypeIncome,
		Category:    "Income",
	})
	if err != nil {
		t.Fatal(err)
	}

	notion := &fakeNotion{}
	if err := SyncTransactions(ctx, st, notion, "db-1", false); err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if len(notion.created) != 1 {
		t.Fatalf("expected 1 created page, got %d", len(notion.created))
	}
	title, ok := notion.created[0]["Transaction ID"].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != persisted.ID {
		t.Errorf("created page not keyed by transaction id: %+v", notion.created[0])
	}
	if len(notion.archived) != 0 {
		t.Errorf("nothing should be archived, got %v", notion.archived)
	}
}

func TestSyncTransactionsArchivesStalePages(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	notion := &fakeNotion{pages: []notionapi.Page{
		pageWithTransactionID("page-stale", "gone-id"),
		{ID: notionapi.ObjectID("page-untitled")},
	}}

	if err := SyncTransactions(ctx, st, notion, "db-1", false); err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if len(notion.archived) != 2 {
		t.Fatalf("expected 2 archived pages, got %v", notion.archived)
	}
	if len(notion.created) != 0 {
		t.Errorf("nothing should be created, got %d", len(notion.created))
	}
}

func TestSyncTransactionsSkipsExistingAndTemporary(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	persisted, err := st.InsertTransaction(ctx, domain.NewTransaction{
		Description: "Bayar listrik",
		Amount:      250000,
		Type:        domain.TypeExpense,
		Category:    "Utilities",
	})
	if err != nil {
		t.Fatal(err)
	}

	notion := &fakeNotion{pages: []notionapi.Page{
		pageForTransaction("page-existing", persisted),
	}}

	if err := SyncTransactions(ctx, st, notion, "db-1", false); err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if len(notion.created) != 0 {
		t.Errorf("existing transaction must not be recreated, got %d creates", len(notion.created))
	}
	if len(notion.updated) != 0 {
		t.Errorf("matching page must not be rewritten, got %d updates", len(notion.updated))
	}
	if len(notion.archived) != 0 {
		t.Errorf("live page must not be archived, got %v", notion.archived)
	}
}

func TestSyncTransactionsUpdatesDriftedPages(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	persisted, err := st.InsertTransaction(ctx, domain.NewTransaction{
		Description: "Bensin",
		Amount:      100000,
		Type:        domain.TypeExpense,
		Category:    "Transportation",
	})
	if err != nil {
		t.Fatal(err)
	}

	// The page mirrors a stale amount and description.
	stale := persisted
	stale.Amount = 90000
	stale.Description = "Bensin motor"
	notion := &fakeNotion{pages: []notionapi.Page{
		pageForTransaction("page-drifted", stale),
	}}

	if err := SyncTransactions(ctx, st, notion, "db-1", false); err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if len(notion.created) != 0 {
		t.Errorf("drifted page must be updated, not recreated, got %d creates", len(notion.created))
	}
	if len(notion.archived) != 0 {
		t.Errorf("drifted page must not be archived, got %v", notion.archived)
	}
	props, ok := notion.updated["page-drifted"]
	if !ok {
		t.Fatalf("expected an update for page-drifted, got %v", notion.updated)
	}
	if amount, ok := props["Amount"].(notionapi.NumberProperty); !ok || amount.Number != 100000 {
		t.Errorf("updated amount = %+v, want 100000", props["Amount"])
	}
	if rt, ok := props["Description"].(notionapi.RichTextProperty); !ok || rt.RichText[0].Text.Content != "Bensin" {
		t.Errorf("updated description = %+v, want Bensin", props["Description"])
	}
}

func TestSyncTransactionsDryRunTouchesNothing(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	if _, err := st.InsertTransaction(ctx, domain.NewTransaction{
		Description: "Makan malam",
		Amount:      75000,
		Type:        domain.TypeExpense,
		Category:    "Food",
	}); err != nil {
		t.Fatal(err)
	}

	notion := &fakeNotion{pages: []notionapi.Page{
		pageWithTransactionID("page-stale", "gone-id"),
	}}

	if err := SyncTransactions(ctx, st, notion, "db-1", true); err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if len(notion.created) != 0 || len(notion.updated) != 0 || len(notion.archived) != 0 {
		t.Errorf("dry run must not write: created=%d updated=%d archived=%v",
			len(notion.created), len(notion.updated), notion.archived)
	}
}

func TestTransactionToNotionProperties(t *testing.T) {
	tx := domain.Transaction{
		ID:          "abc",
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Description: "Beli pulsa",
		Amount:      100000,
		Type:        domain.TypeExpense,
		Category:    "Bills",
	}

	props := TransactionToNotionProperties(tx)

	if amount, ok := props["Amount"].(notionapi.NumberProperty); !ok || amount.Number != 100000 {
		t.Errorf("amount property = %+v", props["Amount"])
	}
	if sel, ok := props["Type"].(notionapi.SelectProperty); !ok || sel.Select.Name != "expense" {
		t.Errorf("type property = %+v", props["Type"])
	}
	if sel, ok := props["Category"].(notionapi.SelectProperty); !ok || sel.Select.Name != "Bills" {
		t.Errorf("category property = %+v", props["Category"])
	}
}
