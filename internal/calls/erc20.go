package calls

import (
	"bytes"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const erc20TransferABI = `[{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

// TransferSelector is the 4-byte selector of transfer(address,uint256).
var TransferSelector = []byte{0xa9, 0x05, 0x9c, 0xbb}

var transferABI = mustParseABI(erc20TransferABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeTransfer returns the call data for transfer(to, amount).
func EncodeTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, errors.New("calls: transfer amount must be non-negative")
	}
	data, err := transferABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, errors.Wrap(err, "calls: pack transfer")
	}
	return data, nil
}

// DecodeTransfer parses hex call data produced by EncodeTransfer.
func DecodeTransfer(data string) (common.Address, *big.Int, error) {
	raw, err := hexutil.Decode(data)
	if err != nil {
		return common.Address{}, nil, errors.Wrap(err, "calls: decode call data")
	}
	if len(raw) < 4 || !bytes.Equal(raw[:4], TransferSelector) {
		return common.Address{}, nil, errors.New("calls: not a transfer(address,uint256) call")
	}

	args, err := transferABI.Methods["transfer"].Inputs.Unpack(raw[4:])
	if err != nil {
		return common.Address{}, nil, errors.Wrap(err, "calls: unpack transfer")
	}
	if len(args) != 2 {
		return common.Address{}, nil, errors.Newf("calls: expected 2 transfer args, got %d", len(args))
	}
	to, ok := args[0].(common.Address)
	if !ok {
		return common.Address{}, nil, errors.New("calls: transfer recipient has unexpected type")
	}
	amount, ok := args[1].(*big.Int)
	if !ok {
		return common.Address{}, nil, errors.New("calls: transfer amount has unexpected type")
	}
	return to, amount, nil
}
