package grpc

import (
	"errors"
	"fmt"
	"math"

	"github.com/alfagnish/itemsvc/internal/items"
	"google.golang.org/protobuf/types/known/structpb"
)

var errInvalidRequest = errors.New("Invalid request")

// itemToStruct encodes an item with the same keys as its JSON form.
func itemToStruct(it items.Item) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":          structpb.NewNumberValue(float64(it.ID)),
		"name":        structpb.NewStringValue(it.Name),
		"description": structpb.NewStringValue(it.Description),
	}}
}

func structToItem(s *structpb.Struct) (items.Item, error) {
	f := s.GetFields()
	id, ok := f["id"].GetKind().(*structpb.Value_NumberValue)
	if !ok || id.NumberValue != math.Trunc(id.NumberValue) {
		return items.Item{}, fmt.Errorf("item struct: bad id %v", f["id"])
	}
	return items.Item{
		ID:          int64(id.NumberValue),
		Name:        f["name"].GetStringValue(),
		Description: f["description"].GetStringValue(),
	}, nil
}

// createParams validates a CreateItem request: name must be a non-empty
// string, description is optional but must be a string when present.
func createParams(s *structpb.Struct) (string, *string, error) {
	f := s.GetFields()
	name, ok := f["name"].GetKind().(*structpb.Value_StringValue)
	if !ok || name.StringValue == "" {
		return "", nil, errInvalidRequest
	}

	v, present := f["description"]
	if !present {
		return name.StringValue, nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return name.StringValue, nil, nil
	case *structpb.Value_StringValue:
		desc := k.StringValue
		return name.StringValue, &desc, nil
	default:
		return "", nil, errInvalidRequest
	}
}

func createRequest(name string, description *string) *structpb.Struct {
	fields := map[string]*structpb.Value{"name": structpb.NewStringValue(name)}
	if description != nil {
		fields["description"] = structpb.NewStringValue(*description)
	}
	return &structpb.Struct{Fields: fields}
}
