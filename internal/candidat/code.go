package candidat

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet はセッションコードに使用する文字集合。
// 紛らわしい文字の除外はせず、英大文字と数字の36文字を使う。
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// GenerateCode は8文字のセッションコードを暗号学的乱数で生成する。
func GenerateCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("セッションコードの生成に失敗しました: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
