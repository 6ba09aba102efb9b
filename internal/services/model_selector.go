package services

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ModelTier is the cost tier for a language model call.
type ModelTier string

const (
	TierCheap ModelTier = "cheap"
	TierMain  ModelTier = "main"
)

// cheapKeywords are request words that don't need the main model.
var cheapKeywords = []string{"list", "define", "summarize"}

// shortWhatQuestionLimit bounds what still counts as a short factual
// "what" question.
const shortWhatQuestionLimit = 100

// SelectModelTier picks the cost tier for a message. Short "what" questions
// and simple list/define/summarize requests go to the cheap tier; everything
// else goes to the main tier. Pure function of the message content, no
// network access.
func SelectModelTier(text string) ModelTier {
	lower := strings.ToLower(strings.TrimSpace(text))

	if strings.HasPrefix(lower, "what") && len(lower) <= shortWhatQuestionLimit {
		return TierCheap
	}

	for _, kw := range cheapKeywords {
		if strings.Contains(lower, kw) {
			return TierCheap
		}
	}

	return TierMain
}

// cacheKeyWords is how many leading words participate in the response cache
// key. Messages that agree on the first 10 words collide on purpose: near
// duplicate phrasing with a different tail still reuses the cached reply.
// That false-positive tolerance is a cost-saving heuristic, not a bug.
const cacheKeyWords = 10

// NormalizeMessage lowercases a message and truncates it to its first 10
// words, collapsing whitespace.
func NormalizeMessage(message string) string {
	words := strings.Fields(strings.ToLower(message))
	if len(words) > cacheKeyWords {
		words = words[:cacheKeyWords]
	}
	return strings.Join(words, " ")
}

// ResponseCacheKey builds the cache key for a (user, message) pair.
func ResponseCacheKey(userID, message string) string {
	sum := sha256.Sum256([]byte(NormalizeMessage(message)))
	return fmt.Sprintf("respcache:%s:%x", userID, sum[:8])
}
