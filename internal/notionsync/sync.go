// Package notionsync mirrors the transaction ledger into a Notion
// database. The sync is one-way and idempotent: pages are keyed by
// transaction id, stale pages are archived, drifted ones updated,
// missing ones created.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/anandaputra/uangku/internal/domain"
	"github.com/anandaputra/uangku/internal/logger"
	"github.com/anandaputra/uangku/internal/store"
)

// SyncTransactions mirrors the current transaction list into the Notion
// database identified by notionDBID.
// It:
// 1. Queries all existing pages from Notion
// 2. Archives stale pages (pages whose transaction id is no longer in the store)
// 3. Updates pages whose mirrored fields no longer match the store record
// 4. Creates pages for transactions with no page yet
// Temporary records awaiting confirmation are never synced.
func SyncTransactions(ctx context.Context, st store.Store, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := st.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved transactions from store")

	validTransactionIDs := make(map[string]bool)
	for _, tx := range transactions {
		if tx.IsTemporary() {
			continue
		}
		validTransactionIDs[tx.ID] = true
	}

	log.Info().Msg("Querying existing pages from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	existingPages := make(map[string]notionapi.Page)
	for _, page := range notionPages {
		txID := extractTransactionID(page)
		if txID != "" {
			existingPages[txID] = page
		}
	}

	// Archive pages without a transaction id or whose id left the store.
	var archived int
	for _, page := range notionPages {
		txID := extractTransactionID(page)
		if txID != "" && validTransactionIDs[txID] {
			continue
		}

		if dryRun {
			log.Info().
				Str("transaction_id", txID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			archived++
			continue
		}

		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", txID).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		log.Info().
			Str("transaction_id", txID).
			Str("page_id", string(page.ID)).
			Msg("Archived stale Notion page")
		archived++
	}

	var created, updated, skipped int
	for _, tx := range transactions {
		if tx.IsTemporary() {
			skipped++
			continue
		}

		if page, ok := existingPages[tx.ID]; ok {
			if pageMatchesTransaction(page, tx) {
				skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("transaction_id", tx.ID).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would update drifted Notion page")
				updated++
				continue
			}

			if _, err := notionClient.UpdatePage(ctx, string(page.ID), TransactionToNotionProperties(tx)); err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", tx.ID).
					Str("page_id", string(page.ID)).
					Msg("Failed to update Notion page")
				continue
			}
			log.Info().
				Str("transaction_id", tx.ID).
				Str("page_id", string(page.ID)).
				Msg("Updated Notion page")
			updated++
			continue
		}

		if dryRun {
			log.Info().
				Str("transaction_id", tx.ID).
				Msg("[DRY RUN] Would create new Notion page")
			created++
			continue
		}

		props := TransactionToNotionProperties(tx)

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", tx.ID).
				Msg("Failed to create Notion page")
			// Continue processing other transactions
			continue
		}
		log.Info().
			Str("transaction_id", tx.ID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
		created++
	}

	log.Info().
		Int("archived", archived).
		Int("created", created).
		Int("updated", updated).
		Int("skipped", skipped).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return nil
}

// pageMatchesTransaction reports whether the page's mirrored fields still
// equal the store record. The creation date is not compared; it never
// changes after the page is created.
func pageMatchesTransaction(page notionapi.Page, tx domain.Transaction) bool {
	num, ok := page.Properties["Amount"].(*notionapi.NumberProperty)
	if !ok || num.Number != float64(tx.Amount) {
		return false
	}

	sel, ok := page.Properties["Type"].(*notionapi.SelectProperty)
	if !ok || sel.Select.Name != string(tx.Type) {
		return false
	}

	var category string
	if sel, ok := page.Properties["Category"].(*notionapi.SelectProperty); ok {
		category = sel.Select.Name
	}
	if category != tx.Category {
		return false
	}

	var description string
	if rt, ok := page.Properties["Description"].(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
		description = rt.RichText[0].PlainText
	}
	return description == tx.Description
}

// queryAllNotionPages queries all pages from a Notion database.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractTransactionID extracts the transaction id from a Notion page's
// title property. Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties["Transaction ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
