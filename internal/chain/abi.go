package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the protocol surfaces the liquidator touches.
// Only the functions and events actually called are declared.

const coreABIJSON = `[
	{"type":"function","name":"highCollateralRatio","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"lowCollateralRatio","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"currentBorrowIndex","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getProofProtocol","stateMutability":"view","inputs":[{"name":"index","type":"uint8"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"vaults","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"normalizedBorrowedAmount","type":"uint256"},{"name":"collateralAmount","type":"uint256"}]},
	{"type":"function","name":"getSupportedBorrowAssets","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"event","name":"Borrowed","inputs":[
		{"name":"borrower","type":"address","indexed":true},
		{"name":"collateralAmount","type":"uint256","indexed":false},
		{"name":"borrowedAmount","type":"uint256","indexed":false},
		{"name":"borrowAssetAddress","type":"address","indexed":false},
		{"name":"accountCollateral","type":"uint256","indexed":false},
		{"name":"accountBorrowed","type":"uint256","indexed":false}
	],"anonymous":false}
]`

const oracleABIJSON = `[
	{"type":"function","name":"fetchCurrentPrice","stateMutability":"view","inputs":[],"outputs":[{"name":"price","type":"uint256"},{"name":"timestamp","type":"uint256"}]}
]`

const assessorABIJSON = `[
	{"type":"function","name":"maxScore","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint16"}]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

const liquidatorABIJSON = `[
	{"type":"function","name":"liquidate","stateMutability":"nonpayable","inputs":[
		{"name":"core","type":"address"},
		{"name":"account","type":"address"},
		{"name":"proof","type":"tuple","components":[
			{"name":"account","type":"address"},
			{"name":"protocol","type":"bytes32"},
			{"name":"score","type":"uint256"},
			{"name":"merkleProof","type":"bytes32[]"}
		]}
	],"outputs":[]}
]`

const multicallABIJSON = `[
	{"type":"function","name":"aggregate","stateMutability":"view","inputs":[
		{"name":"calls","type":"tuple[]","components":[
			{"name":"target","type":"address"},
			{"name":"callData","type":"bytes"}
		]}
	],"outputs":[{"name":"blockNumber","type":"uint256"},{"name":"returnData","type":"bytes[]"}]}
]`

var (
	coreABI       = mustParseABI(coreABIJSON)
	oracleABI     = mustParseABI(oracleABIJSON)
	assessorABI   = mustParseABI(assessorABIJSON)
	erc20ABI      = mustParseABI(erc20ABIJSON)
	liquidatorABI = mustParseABI(liquidatorABIJSON)
	multicallABI  = mustParseABI(multicallABIJSON)

	// BorrowedTopic is the topic0 of the core's Borrowed event; the borrower
	// address sits in topic position 1.
	BorrowedTopic = coreABI.Events["Borrowed"].ID
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
