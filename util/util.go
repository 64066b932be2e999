package util

import (
	"encoding/json"
)

const Version = "1.0.0"

func GetNameAndVersion() string {
	return Name + " / " + Version
}

func PrettyPrint(i interface{}) string {
	s, _ := json.MarshalIndent(i, "", " ")
	return string(s)
}
