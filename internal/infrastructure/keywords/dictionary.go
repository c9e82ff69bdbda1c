package keywords

import (
	"strings"
)

// Dictionary は要望テキストからPlaces検索キーワードを導くルール辞書
type Dictionary struct {
	rules []rule
}

// rule は単一のルールを表す
type rule struct {
	triggers []string
	keyword  string
}

// NewDictionary は新しいDictionaryを作成
func NewDictionary() *Dictionary {
	return &Dictionary{
		rules: []rule{
			{
				triggers: []string{"cafe", "café", "coffee", "espresso", "latte", "カフェ", "コーヒー", "喫茶"},
				keyword:  "cafe",
			},
			{
				triggers: []string{"park", "green", "scenic", "garden", "nature", "公園", "緑", "景色"},
				keyword:  "park",
			},
			{
				triggers: []string{"museum", "gallery", "美術館", "博物館"},
				keyword:  "museum",
			},
			{
				triggers: []string{"bakery", "bread", "pastry", "パン"},
				keyword:  "bakery",
			},
			{
				triggers: []string{"book", "bookstore", "library", "本屋", "書店"},
				keyword:  "book store",
			},
		},
	}
}

// Keywords は要望テキストに現れるキーワードをルール順に返す。一致が無ければnil。
func (d *Dictionary) Keywords(query string) []string {
	message := strings.ToLower(query)

	var out []string
	for _, rule := range d.rules {
		for _, trigger := range rule.triggers {
			if strings.Contains(message, trigger) {
				out = append(out, rule.keyword)
				break
			}
		}
	}

	return out
}
