package chain

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// packConstructor coerces plan arguments to the constructor's input types and
// ABI-encodes them.
func packConstructor(parsed abi.ABI, args []any) ([]byte, error) {
	inputs := parsed.Constructor.Inputs
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(inputs), len(args))
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	values, err := coerceArgs(inputs, args)
	if err != nil {
		return nil, err
	}
	packed, err := parsed.Pack("", values...)
	if err != nil {
		return nil, fmt.Errorf("pack constructor arguments: %w", err)
	}
	return packed, nil
}

func coerceArgs(inputs abi.Arguments, args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, in := range inputs {
		v, err := coerce(in.Type, args[i])
		if err != nil {
			name := in.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, in.Type, err)
		}
		out[i] = v
	}
	return out, nil
}

// coerce converts a plan value (usually a string, bool or number decoded from
// YAML) to the Go type abi.Pack expects for t.
func coerce(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		return toFixedBytes(t, v)
	case abi.IntTy, abi.UintTy:
		return toInteger(t, v)
	default:
		return nil, fmt.Errorf("unsupported constructor argument type")
	}
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case string:
		if !common.IsHexAddress(x) {
			return common.Address{}, fmt.Errorf("invalid address %q", x)
		}
		return common.HexToAddress(x), nil
	default:
		return common.Address{}, fmt.Errorf("expected address, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("invalid bool %q", x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		if !strings.HasPrefix(x, "0x") {
			x = "0x" + x
		}
		b, err := hexutil.Decode(x)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("expected hex bytes, got %T", v)
	}
}

func toFixedBytes(t abi.Type, v any) (any, error) {
	b, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	if len(b) > t.Size {
		return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
	}
	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}

func toInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s out of range for uint%d", n, t.Size)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		lo := new(big.Int).Neg(limit)
		hi := new(big.Int).Sub(limit, big.NewInt(1))
		if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
			return nil, fmt.Errorf("%s out of range for int%d", n, t.Size)
		}
	}

	typ := t.GetType()
	if typ == reflect.TypeOf(&big.Int{}) {
		return n, nil
	}
	out := reflect.New(typ).Elem()
	if t.T == abi.UintTy {
		out.SetUint(n.Uint64())
	} else {
		out.SetInt(n.Int64())
	}
	return out.Interface(), nil
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		return new(big.Int).Set(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if math.IsInf(x, 0) || x != math.Trunc(x) {
			return nil, fmt.Errorf("non-integer value %v", x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), "_", "")
		n, ok := new(big.Int).SetString(s, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}
