package util

import "strconv"

// JoinKey appends an object key to a field path using dot notation.
// The root path is the empty string.
func JoinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// JoinIndex appends an array index to a field path using bracket
// notation, e.g. "users[0]".
func JoinIndex(path string, index int) string {
	return path + "[" + strconv.Itoa(index) + "]"
}
