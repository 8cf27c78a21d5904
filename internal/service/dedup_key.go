package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/aakashdhakal/HaatBazar-sub000/internal/domain"
)

// DedupKey fingerprints a checkout attempt: same user, same method, same
// cart contents hash to the same key regardless of item order.
func DedupKey(userID string, method domain.PaymentMethod, items []domain.CartItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s:%d", item.ProductID, item.Quantity))
	}
	sort.Strings(lines)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", userID, method, strings.Join(lines, ","))
	return hex.EncodeToString(h.Sum(nil))
}
