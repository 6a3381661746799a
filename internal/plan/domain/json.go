package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func decodeJSON(raw datatypes.JSON, out any) error {
	return json.Unmarshal(raw, out)
}

// EncodeServiceTypes serializes an allow-list for storage.
func EncodeServiceTypes(types []ServiceType) (datatypes.JSON, error) {
	if len(types) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(types)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
