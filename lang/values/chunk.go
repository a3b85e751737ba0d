package values

import "fmt"

// OpCode is the tag of a bytecode Op (spec §3 "Op").
type OpCode uint8

const (
	OpPush     OpCode = iota // Push(const_idx)
	OpLoad                   // Load(local)
	OpStore                  // Store(local)
	OpLookUp                 // LookUp(sym)
	OpDefine                 // Define
	OpPop                    // Pop
	OpCall                   // Call(argc)
	OpTailcall               // Tailcall(argc)
	OpReturn                 // Return
	OpJmp                    // Jmp(off)
	OpCondJmp                // CondJmp(off)
	OpAdd                    // Add
	OpAddConst               // AddConst(const_idx)
	OpEq                     // Eq
	OpEqConst                // EqConst(const_idx)
	OpClosure                // Closure
)

var opNames = [...]string{
	OpPush:     "PUSH",
	OpLoad:     "LOAD",
	OpStore:    "STORE",
	OpLookUp:   "LOOKUP",
	OpDefine:   "DEFINE",
	OpPop:      "POP",
	OpCall:     "CALL",
	OpTailcall: "TAILCALL",
	OpReturn:   "RETURN",
	OpJmp:      "JMP",
	OpCondJmp:  "CONDJMP",
	OpAdd:      "ADD",
	OpAddConst: "ADDCONST",
	OpEq:       "EQ",
	OpEqConst:  "EQCONST",
	OpClosure:  "CLOSURE",
}

func (c OpCode) String() string {
	if int(c) < len(opNames) {
		return opNames[c]
	}
	return "?"
}

// Op is a single bytecode instruction. Arg carries whatever operand the Code
// needs (a constant index, a local slot, an argument count or a jump
// offset); it is unused (zero) for operand-less codes like Pop, Add, Eq,
// Define, Return and Closure (spec §3 "Op").
type Op struct {
	Code OpCode
	Arg  uint16
}

func (o Op) String() string {
	switch o.Code {
	case OpPush, OpLoad, OpStore, OpCall, OpTailcall, OpJmp, OpCondJmp, OpAddConst, OpEqConst:
		return fmt.Sprintf("%-8s %d", o.Code, o.Arg)
	default:
		return o.Code.String()
	}
}

// Chunk is the compiled body of a top-level form or a fn (spec §3 "Chunk").
type Chunk struct {
	Ops    []Op
	Consts []Value
	// ScopeSize is the number of local slots the machine must reserve above
	// the frame's ret index on entry.
	ScopeSize int
	// Arity is the expected argument count; informational (used in error
	// messages and by Func/Closure String()).
	Arity int
}
