package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/anandaputra/uangku/internal/domain"
)

// TransactionToNotionProperties converts a transaction to Notion page
// properties. The transaction id goes into the title property so that
// later syncs can match pages back to store rows.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.ID,
					},
				},
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: float64(tx.Amount),
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Type),
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(tx.Timestamp().UTC())
					return &d
				}(),
			},
		},
	}

	if tx.Description != "" {
		props["Description"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Description,
					},
				},
			},
		}
	}

	if tx.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Category,
			},
		}
	}

	return props
}
