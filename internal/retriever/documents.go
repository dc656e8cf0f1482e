package retriever

// builtinDocuments 内置示例文档（财务与保险场景）
func builtinDocuments() []*Document {
	return []*Document{
		{
			ID:      "INV-001",
			Title:   "Invoice 1",
			DocType: "invoice",
			Content: `INVOICE INV-001
Vendor: Acme Office Supplies
Date: 2024-01-15
Items:
  - Standing desk x2: $800.00
  - Ergonomic chair x2: $400.00
Total: $1,200.00
Payment terms: Net 30 days.`,
			Metadata: map[string]interface{}{
				"total":  1200.0,
				"vendor": "Acme Office Supplies",
				"date":   "2024-01-15",
			},
		},
		{
			ID:      "INV-002",
			Title:   "Invoice 2",
			DocType: "invoice",
			Content: `INVOICE INV-002
Vendor: Northwind IT Services
Date: 2024-02-03
Items:
  - Annual server maintenance: $2,700.50
  - Network audit: $750.00
Total: $3,450.50
Payment terms: Net 15 days.`,
			Metadata: map[string]interface{}{
				"total":  3450.5,
				"vendor": "Northwind IT Services",
				"date":   "2024-02-03",
			},
		},
		{
			ID:      "CON-001",
			Title:   "Service Contract",
			DocType: "contract",
			Content: `SERVICE CONTRACT CON-001
Parties: Globex Corp (client) and Initech LLC (provider)
Effective: 2024-01-01 through 2024-12-31
Scope: managed IT support, response within 4 business hours.
Monthly fee: $5,000.00. Early termination requires 60 days written notice.`,
			Metadata: map[string]interface{}{
				"total":   5000.0,
				"parties": "Globex Corp / Initech LLC",
				"expires": "2024-12-31",
			},
		},
		{
			ID:      "CLM-001",
			Title:   "Insurance Claim",
			DocType: "claim",
			Content: `INSURANCE CLAIM CLM-001
Policyholder: Jordan Reyes
Policy: HC-88421 (health)
Date of service: 2024-03-12
Claimed amount: $8,750.00
Status: under review, additional documentation requested on 2024-03-20.`,
			Metadata: map[string]interface{}{
				"total":  8750.0,
				"policy": "HC-88421",
				"status": "under review",
			},
		},
	}
}
