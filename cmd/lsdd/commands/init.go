package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"
	ctrlertypes "github.com/milkyway-labs/lsd-go/ctrlers/types"
	"github.com/milkyway-labs/lsd-go/types"
	"github.com/milkyway-labs/lsd-go/types/bytes"
	"github.com/milkyway-labs/lsd-go/types/xerrors"
	"github.com/spf13/cobra"
	tmjson "github.com/tendermint/tendermint/libs/json"
)

var (
	initMsgPath string
	initSender  string
)

// offlineTokenFactory derives the factory denom the way the host chain
// would. Mint and burn are host operations and are not available here.
type offlineTokenFactory struct {
	contract types.Address
}

func (f *offlineTokenFactory) CreateDenom(subdenom string) (string, xerrors.XError) {
	return fmt.Sprintf("factory/%s/%s", f.contract, subdenom), nil
}

func (f *offlineTokenFactory) Mint(string, *uint256.Int, types.Address) xerrors.XError {
	return xerrors.NewOrdinary("mint is not available offline")
}

func (f *offlineTokenFactory) Burn(string, *uint256.Int, types.Address) xerrors.XError {
	return xerrors.NewOrdinary("burn is not available offline")
}

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the contract state from an init message",
		RunE:  initState,
	}
	cmd.Flags().StringVar(&initMsgPath, "init_msg", "init_msg.json", "path to the init message file")
	cmd.Flags().StringVar(&initSender, "sender", "", "address that becomes the contract owner")
	cmd.Flags().StringVar(&initContract, "contract", "", "the contract's own address")
	return cmd
}

var initContract string

func initState(cmd *cobra.Command, args []string) error {
	bz, err := os.ReadFile(initMsgPath)
	if err != nil {
		return err
	}
	msg := &ctrlertypes.InitMsg{}
	if err := tmjson.Unmarshal(bz, msg); err != nil {
		return err
	}

	ctrler, xerr := openCtrler()
	if xerr != nil {
		return xerr
	}
	defer func() { _ = ctrler.Close() }()

	contract := types.Address(initContract)
	ctx := &ctrlertypes.ExecContext{
		Sender:       types.Address(initSender),
		Contract:     contract,
		BlockTime:    time.Now().Unix(),
		TokenFactory: &offlineTokenFactory{contract: contract},
	}
	if xerr := ctrler.InitLedger(ctx, msg); xerr != nil {
		return xerr
	}
	hash, ver, xerr := ctrler.Commit()
	if xerr != nil {
		return xerr
	}

	cmd.Printf("initialized at %s, version %d, hash %s\n", dataDir(), ver, bytes.HexBytes(hash))
	return nil
}
