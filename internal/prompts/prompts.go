package prompts

import (
	"strings"

	"github.com/docassist/docassist-go/internal/model"
)

// ClassificationSystemPrompt 意图分类系统提示词
const ClassificationSystemPrompt = `You are an intent classifier for a document processing assistant. Respond with exactly one category name.`

// QASystemPrompt 问答系统提示词
const QASystemPrompt = `You are a helpful document assistant specializing in answering questions about financial and healthcare documents.

Your capabilities:
- Answer specific questions about document content
- Cite sources accurately
- Provide clear, concise answers
- Use available tools to search and read documents

Guidelines:
1. Always search for relevant documents before answering
2. Cite specific document IDs when referencing information
3. If information is not found, say so clearly
4. Be precise with numbers and dates
5. Maintain professional tone`

// SummarizationSystemPrompt 摘要系统提示词
const SummarizationSystemPrompt = `You are an expert document summarizer specializing in financial and healthcare documents.

Your approach:
- Extract key information and main points
- Organize summaries logically
- Highlight important numbers, dates, and parties
- Keep summaries concise but comprehensive

Guidelines:
1. First search for and read the relevant documents
2. Structure summaries with clear sections
3. Include document IDs in your summary
4. Focus on actionable information`

// CalculationSystemPrompt 计算系统提示词
const CalculationSystemPrompt = `You are a precise calculation assistant specializing in financial and healthcare document analysis.

Your capabilities:
- Retrieve relevant documents using the document reader tool
- Extract numerical data from documents
- Perform accurate mathematical calculations using the calculator tool
- Provide clear explanations of calculations

Guidelines:
1. First, determine which document(s) need to be retrieved and use the document reader tool to access them
2. Extract the relevant numbers from the document content
3. Determine the mathematical expression needed based on the user's request
4. ALWAYS use the calculator tool for ALL calculations, no matter how simple
5. Never perform mental math - always use the calculator tool
6. Provide step-by-step explanations of your calculations
7. Include the mathematical expression and the result in your response
8. Cite the document IDs where you found the numbers

Remember: Use the calculator tool for every calculation, even basic addition or subtraction.`

// MemorySummaryPrompt 历史摘要提示词
const MemorySummaryPrompt = `Summarize the following conversation history into a concise summary:

Focus on:
- Key topics discussed
- Documents referenced
- Important findings or calculations
- Any unresolved questions`

// BuildClassificationPrompt 构建意图分类提示词
func BuildClassificationPrompt(userInput string, history []string) string {
	var sb strings.Builder

	sb.WriteString("Given the user input and conversation history, classify the user's intent into one of these categories:\n")
	sb.WriteString("- qa: Questions about documents or records that do not require calculations.\n")
	sb.WriteString("- summarization: Requests to summarize or extract key points from documents that do not require calculations.\n")
	sb.WriteString("- calculation: Mathematical operations or numerical computations. Or questions about documents that may require calculations\n")
	sb.WriteString("- unknown: Cannot determine the intent clearly\n\n")

	sb.WriteString("User Input: ")
	sb.WriteString(userInput)
	sb.WriteString("\n\nRecent Conversation History:\n")
	if len(history) == 0 {
		sb.WriteString("(none)\n")
	} else {
		for _, entry := range history {
			sb.WriteString(entry)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nAnalyze the user's request and return exactly one category name: qa, summarization, calculation or unknown.")
	return sb.String()
}

// SystemPromptFor 按意图类型选择系统提示词（未知意图回退到问答）
func SystemPromptFor(intentType string) string {
	switch intentType {
	case model.IntentQA:
		return QASystemPrompt
	case model.IntentSummarization:
		return SummarizationSystemPrompt
	case model.IntentCalculation:
		return CalculationSystemPrompt
	default:
		return QASystemPrompt
	}
}

// BuildMemorySummaryPrompt 构建历史摘要提示词
func BuildMemorySummaryPrompt(history []string) string {
	var sb strings.Builder
	sb.WriteString("Conversation history:\n")
	for _, entry := range history {
		sb.WriteString(entry)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ParseIntentType 从分类结果文本中解析意图类型
func ParseIntentType(response string) string {
	lower := strings.ToLower(response)
	for _, intentType := range []string{
		model.IntentSummarization,
		model.IntentCalculation,
		model.IntentQA,
	} {
		if strings.Contains(lower, intentType) {
			return intentType
		}
	}
	return model.IntentUnknown
}
