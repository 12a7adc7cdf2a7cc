package parsers

import (
	"fmt"

	"github.com/username/ledgerly/backend/src/parsers/generic"
	"github.com/username/ledgerly/backend/src/parsers/revolut"
)

func GetParser(source string) (Parser, error) {
	switch source {
	case "generic", "":
		return generic.NewParser(), nil
	case "revolut":
		return revolut.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}
