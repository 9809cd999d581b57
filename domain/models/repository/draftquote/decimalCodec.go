package draftquote_repository

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// NewRegistry returns the default bson registry extended with a Decimal128 codec for decimal.Decimal.
func NewRegistry() *bsoncodec.Registry {
	registry := bson.NewRegistry()
	registry.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(decimalEncodeValue))
	registry.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decimalDecodeValue))
	return registry
}

func decimalEncodeValue(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "decimalEncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}

	value := val.Interface().(decimal.Decimal)
	decimal128, err := primitive.ParseDecimal128(value.String())
	if err != nil {
		return fmt.Errorf("decimal %s out of Decimal128 range: %w", value.String(), err)
	}
	return vw.WriteDecimal128(decimal128)
}

func decimalDecodeValue(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "decimalDecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}

	var value decimal.Decimal
	switch vr.Type() {
	case bsontype.Decimal128:
		decimal128, err := vr.ReadDecimal128()
		if err != nil {
			return err
		}
		value, err = decimal.NewFromString(decimal128.String())
		if err != nil {
			return err
		}
	case bsontype.String:
		raw, err := vr.ReadString()
		if err != nil {
			return err
		}
		value, err = decimal.NewFromString(raw)
		if err != nil {
			return err
		}
	case bsontype.Double:
		raw, err := vr.ReadDouble()
		if err != nil {
			return err
		}
		value = decimal.NewFromFloat(raw)
	case bsontype.Int32:
		raw, err := vr.ReadInt32()
		if err != nil {
			return err
		}
		value = decimal.NewFromInt32(raw)
	case bsontype.Int64:
		raw, err := vr.ReadInt64()
		if err != nil {
			return err
		}
		value = decimal.NewFromInt(raw)
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
		value = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %v into decimal.Decimal", vr.Type())
	}

	val.Set(reflect.ValueOf(value))
	return nil
}
