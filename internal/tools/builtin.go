package tools

import (
	"fmt"

	"github.com/docassist/docassist-go/internal/retriever"
	"go.uber.org/zap"
)

// 内置工具名称
const (
	ToolCalculator      = "calculator"
	ToolReadDocument    = "read_document"
	ToolSearchDocuments = "search_documents"
)

// RegisterBuiltinTools 注册文档助手的内置工具
func RegisterBuiltinTools(registry *Registry, docs *retriever.Store, logger *zap.Logger) error {
	logger.Info("注册内置工具...")

	calculatorTool := &Tool{
		Name:        ToolCalculator,
		Description: "Evaluate an arithmetic expression. Use this for every calculation, even simple addition. Supports + - * / and parentheses.",
		Parameters: ParameterSchema{
			Type: "object",
			Properties: map[string]Property{
				"expression": {
					Type:        "string",
					Description: "The arithmetic expression to evaluate, e.g. \"1200 + 3450.50\"",
				},
			},
			Required: []string{"expression"},
		},
		Handler: func(params map[string]interface{}) (interface{}, error) {
			expression, ok := params["expression"].(string)
			if !ok || expression == "" {
				return nil, fmt.Errorf("invalid expression")
			}

			result, err := EvalExpression(expression)
			if err != nil {
				return map[string]interface{}{
					"error": fmt.Sprintf("calculation failed: %v", err),
				}, nil
			}

			return map[string]interface{}{
				"expression": expression,
				"result":     result,
			}, nil
		},
	}

	readDocumentTool := &Tool{
		Name:        ToolReadDocument,
		Description: "Read the full content and metadata of a document by its ID, e.g. INV-001, CON-001, CLM-001.",
		Parameters: ParameterSchema{
			Type: "object",
			Properties: map[string]Property{
				"doc_id": {
					Type:        "string",
					Description: "The document ID to read",
				},
			},
			Required: []string{"doc_id"},
		},
		Handler: func(params map[string]interface{}) (interface{}, error) {
			docID, ok := params["doc_id"].(string)
			if !ok || docID == "" {
				return nil, fmt.Errorf("invalid doc_id")
			}

			doc, err := docs.Get(docID)
			if err != nil {
				return map[string]interface{}{
					"error": fmt.Sprintf("document not found: %s", docID),
				}, nil
			}

			return map[string]interface{}{
				"id":       doc.ID,
				"title":    doc.Title,
				"doc_type": doc.DocType,
				"content":  doc.Content,
				"metadata": doc.Metadata,
			}, nil
		},
	}

	searchDocumentsTool := &Tool{
		Name:        ToolSearchDocuments,
		Description: "Search the document store for documents relevant to a query. Returns matching document IDs, titles and excerpts.",
		Parameters: ParameterSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "The search query",
				},
			},
			Required: []string{"query"},
		},
		Handler: func(params map[string]interface{}) (interface{}, error) {
			query, ok := params["query"].(string)
			if !ok || query == "" {
				return nil, fmt.Errorf("invalid query")
			}

			results, err := docs.Search(query, 3)
			if err != nil {
				return nil, fmt.Errorf("检索失败: %w", err)
			}

			matches := make([]map[string]interface{}, 0, len(results))
			for _, r := range results {
				matches = append(matches, map[string]interface{}{
					"id":       r.Document.ID,
					"title":    r.Document.Title,
					"doc_type": r.Document.DocType,
					"score":    r.Score,
					"excerpt":  excerpt(r.Document.Content, 200),
				})
			}

			return map[string]interface{}{
				"query":   query,
				"matches": matches,
			}, nil
		},
	}

	for _, tool := range []*Tool{calculatorTool, readDocumentTool, searchDocumentsTool} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	logger.Info("内置工具注册完成", zap.Int("count", registry.Count()))
	return nil
}

// excerpt 截取内容前 n 个字符（按 rune 截断，避免切开多字节字符）
func excerpt(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
