package database

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// TitleRecord is one entry of the bidirectional title index: the title a
// user currently holds in a chat. At most one record exists per
// (chat, user) and per (chat, title).
type TitleRecord struct {
	ChatID int64
	UserID int64
	Title  string
}

func (r TitleRecord) String() string {
	return fmt.Sprintf("%s: User(%d)", r.Title, r.UserID)
}

// The index is stored as two disjoint key families that are always
// written and removed together:
//
//	chat$<chat_id>$<user_id>  -> title bytes (UTF-8)
//	title$<chat_id>$<title>   -> user id (8-byte big-endian)
//
// Listing a chat is a lexicographic prefix scan over chat$<chat_id>$.

func userKey(chatID, userID int64) []byte {
	return []byte(fmt.Sprintf("chat$%d$%d", chatID, userID))
}

func userKeyPrefix(chatID int64) string {
	return fmt.Sprintf("chat$%d$", chatID)
}

func titleKey(chatID int64, title string) []byte {
	return []byte(fmt.Sprintf("title$%d$%s", chatID, title))
}

func encodeUserID(userID int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(userID))
	return buf[:]
}

func decodeUserID(v []byte) (int64, error) {
	if len(v) != 8 {
		return 0, fmt.Errorf("bad user id value: %d bytes", len(v))
	}
	return int64(binary.BigEndian.Uint64(v)), nil
}

// parseUserKey recovers a TitleRecord from a forward key and its value,
// as produced by a prefix scan.
func parseUserKey(k, v []byte) (TitleRecord, error) {
	parts := strings.SplitN(string(k), "$", 3)
	if len(parts) != 3 || parts[0] != "chat" {
		return TitleRecord{}, fmt.Errorf("bad chat key %q", k)
	}
	chatID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return TitleRecord{}, fmt.Errorf("bad chat id in key %q: %w", k, err)
	}
	userID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return TitleRecord{}, fmt.Errorf("bad user id in key %q: %w", k, err)
	}
	return TitleRecord{ChatID: chatID, UserID: userID, Title: string(v)}, nil
}
