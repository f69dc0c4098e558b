package catalog

import "fmt"

// Key prefixes for the catalog database. Document keys are namespaced by
// chatbot so a chatbot's documents can be listed and cascade-deleted with
// one prefix scan.
const (
	chatbotPrefix  = "bot"
	documentPrefix = "doc"
)

func makeChatbotKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chatbotPrefix, id))
}

func makeDocumentKey(chatbotID, documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentPrefix, chatbotID, documentID))
}

func makeDocumentScanPrefix(chatbotID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentPrefix, chatbotID))
}
