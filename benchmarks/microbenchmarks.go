package benchmarks

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets one pipeline behavior.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		multiplyChain(),
		memorySequential(),
		loopSum(),
		functionCalls(),
		branchTaken(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation: a loop, a
// memory program and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSum(),
		memorySequential(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent operations, limited by decode
func arithmeticSequential() Benchmark {
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "12 mostly independent integer operations - measures decode throughput",
		Source: []string{
			"MOVC,R1,#1",
			"MOVC,R2,#2",
			"MOVC,R3,#3",
			"MOVC,R4,#4",
			"ADDL,R5,R0,#5",
			"ADDL,R6,R0,#6",
			"ADDL,R7,R0,#7",
			"ADDL,R8,R0,#8",
			"ADD,R9,R1,R2",
			"ADD,R10,R3,R4",
			"ADD,R11,R5,R6",
			"ADD,R12,R7,R8",
			"HALT",
		},
		ResultReg: 12,
		Expected:  15,
	}
}

// 2. Dependency Chain - every instruction waits for the one before it
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "10 dependent ADDLs - measures wakeup latency",
		Source: []string{
			"MOVC,R1,#0",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"ADDL,R1,R1,#2",
			"HALT",
		},
		ResultReg: 1,
		Expected:  20,
	}
}

// 3. Multiply Chain - dependent multiplies on the non-pipelined unit
func multiplyChain() Benchmark {
	return Benchmark{
		Name:        "multiply_chain",
		Description: "6 dependent MULs - measures multiply latency",
		Source: []string{
			"MOVC,R1,#1",
			"MOVC,R2,#2",
			"MUL,R1,R1,R2",
			"MUL,R1,R1,R2",
			"MUL,R1,R1,R2",
			"MUL,R1,R1,R2",
			"MUL,R1,R1,R2",
			"MUL,R1,R1,R2",
			"HALT",
		},
		ResultReg: 1,
		Expected:  64,
	}
}

// 4. Memory Sequential - stores then loads through the ROB head
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "stores and loads to consecutive cells - measures in-order memory scheduling",
		Source: []string{
			"MOVC,R1,#10",
			"MOVC,R2,#100",
			"STORE,R1,R2,#0",
			"ADDL,R1,R1,#10",
			"STORE,R1,R2,#1",
			"ADDL,R1,R1,#10",
			"STORE,R1,R2,#2",
			"LOAD,R3,R2,#0",
			"LOAD,R4,R2,#1",
			"LDR,R5,R2,R0",
			"ADD,R6,R3,R4",
			"ADD,R6,R6,R5",
			"HALT",
		},
		ResultReg: 6,
		Expected:  40,
	}
}

// 5. Loop Sum - sum of 1..10 with a backward BNZ
func loopSum() Benchmark {
	return Benchmark{
		Name:        "loop_sum",
		Description: "sum 1..10 in a counted loop - measures taken-branch recovery",
		Source: []string{
			"MOVC,R1,#10",
			"MOVC,R2,#0",
			"ADD,R2,R2,R1",
			"SUBL,R1,R1,#1",
			"CMP,R1,R0",
			"BNZ,#-12",
			"HALT",
		},
		ResultReg: 2,
		Expected:  55,
	}
}

// 6. Function Calls - JAL into a leaf and JUMP back through the link
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "two calls to a leaf function - measures JAL and JUMP",
		Source: []string{
			"MOVC,R1,#4020",
			"MOVC,R5,#0",
			"JAL,R14,R1,#0",
			"JAL,R14,R1,#0",
			"HALT",
			"ADDL,R5,R5,#7",
			"JUMP,R14,#0",
		},
		ResultReg: 5,
		Expected:  14,
	}
}

// 7. Branch Taken - forward branches over wrong-path code
func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "taken BZ and BNZ skipping wrong-path writes - measures flush cost",
		Source: []string{
			"MOVC,R1,#0",
			"MOVC,R2,#1",
			"CMP,R1,R1",
			"BZ,#8",
			"MOVC,R2,#99",
			"CMP,R2,R1",
			"BNZ,#8",
			"MOVC,R2,#98",
			"ADDL,R3,R2,#1",
			"HALT",
		},
		ResultReg: 3,
		Expected:  2,
	}
}
