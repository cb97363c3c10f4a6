package utils

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
)

func TempTableName() string {
	return fmt.Sprintf("artie_cursor_%d", 10_000+rand.Int32N(10_000))
}

// MustJSON renders a value as indented JSON, used to compare materialized rows against fixtures.
func MustJSON(value any) string {
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("failed to marshal value: %v", err))
	}
	return string(bytes)
}

// NormalizeRows converts driver-specific value types ([]byte columns in particular) into plain
// strings so that results compare the same across backends.
func NormalizeRows(rows []map[string]any) []map[string]any {
	for _, row := range rows {
		for key, value := range row {
			if bytes, ok := value.([]byte); ok {
				row[key] = string(bytes)
			}
		}
	}
	return rows
}

func CheckDifference(name, expected, actual string) bool {
	if expected == actual {
		return false
	}
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")
	fmt.Println("--------------------------------------------------------------------------------")
	fmt.Printf("Difference in %q\n", name)
	for i := range max(len(expectedLines), len(actualLines)) {
		if i < len(expectedLines) {
			if i < len(actualLines) {
				if expectedLines[i] == actualLines[i] {
					fmt.Println(expectedLines[i])
				} else {
					fmt.Println("E" + expectedLines[i])
					fmt.Println("A" + actualLines[i])
				}
			} else {
				fmt.Println("E" + expectedLines[i])
			}
		} else {
			fmt.Println("A" + actualLines[i])
		}
	}
	fmt.Println("--------------------------------------------------------------------------------")
	return true
}
