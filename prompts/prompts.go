// Package prompts assembles the generation prompts for candidate kernel
// drivers: a base prompt per driver type, a complexity modifier, and a fixed
// style tail, plus the system prompt of kernel coding standards.
package prompts

import (
	"fmt"
	"os"
	"strings"
)

// Driver types accepted by Build.
const (
	CharacterDevice = "character_device"
	BlockDevice     = "block_device"
	NetworkDevice   = "network_device"
	PlatformDevice  = "platform_device"
	USBDevice       = "usb_device"
)

// Complexity levels. An unknown level contributes no modifier.
const (
	ComplexityBasic        = "basic"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

var basePrompts = map[string]string{
	CharacterDevice: `
Create a simple character device driver that supports basic read/write operations with a
{buffer_size} internal buffer. Include proper module initialization and cleanup functions.
`,
	BlockDevice: `
Create a basic block device driver that handles read/write requests with a {block_size} block size.
Include request queue handling and proper error management.
`,
	NetworkDevice: `
Create a simple network device driver that can transmit and receive packets.
Include basic network interface operations and statistics.
`,
	PlatformDevice: `
Implement a platform device driver for a memory-mapped GPIO controller with interrupt support.
Include device tree binding and power management.
`,
	USBDevice: `
Create a USB device driver for a simple bulk transfer device.
Include probe/disconnect functions and endpoint management.
`,
}

var complexityModifiers = map[string]string{
	ComplexityBasic:        "Focus on core functionality only.",
	ComplexityIntermediate: "Include proper error handling and edge cases.",
	ComplexityAdvanced:     "Add performance optimizations and advanced features like DMA support.",
}

const styleRequirements = `
Return only the code, no other text. No backticks. Just the executable C code.
Follow the Linux kernel coding style strictly.
Use the latest Linux kernel version APIs.
Include proper error handling and resource cleanup.
Do not include any explanations or comments outside the code.
`

// Params fills the placeholders in the base prompts.
type Params struct {
	BufferSize string
	BlockSize  string
}

// DefaultParams matches the reference sizes.
func DefaultParams() Params {
	return Params{BufferSize: "1KB", BlockSize: "512 bytes"}
}

// DriverTypes lists the supported driver types in a stable order.
func DriverTypes() []string {
	return []string{CharacterDevice, BlockDevice, NetworkDevice, PlatformDevice, USBDevice}
}

// Build assembles the full prompt for one driver type and complexity level.
// Unknown driver types are an error; unknown complexities just omit the
// modifier line.
func Build(driverType, complexity string, params Params) (string, error) {
	base, ok := basePrompts[driverType]
	if !ok {
		return "", fmt.Errorf("unknown driver type: %s", driverType)
	}
	base = strings.ReplaceAll(base, "{buffer_size}", params.BufferSize)
	base = strings.ReplaceAll(base, "{block_size}", params.BlockSize)
	return base + "\n" + complexityModifiers[complexity] + "\n" + styleRequirements, nil
}

const defaultKernelStandards = `
You are an expert Linux kernel developer. Follow these guidelines:

1. CODING STYLE:
   - Use 8-space tabs for indentation
   - Keep lines under 80 characters when possible
   - Use Linux kernel naming conventions
   - Place opening braces on the same line for functions

2. INCLUDES AND HEADERS:
   - Always include necessary kernel headers
   - #include <linux/module.h> for module support
   - #include <linux/kernel.h> for kernel functions
   - #include <linux/fs.h> for file operations
   - #include <linux/uaccess.h> for user space access

3. ERROR HANDLING:
   - Use proper kernel error codes (-ENOMEM, -EINVAL, etc.)
   - Always check return values
   - Clean up resources on error paths
   - Use goto for error handling when appropriate

4. MEMORY MANAGEMENT:
   - Use kmalloc/kfree for kernel memory allocation
   - Always check for allocation failures
   - Free all allocated memory in cleanup paths
   - Use GFP_KERNEL for normal allocations

5. MODULE STRUCTURE:
   - Include MODULE_LICENSE("GPL")
   - Add MODULE_AUTHOR and MODULE_DESCRIPTION
   - Implement proper init and exit functions
   - Use module_init() and module_exit() macros

6. DEVICE OPERATIONS:
   - Implement proper file_operations structure
   - Handle concurrent access appropriately
   - Validate user input parameters
   - Return appropriate values from operations
`

// KernelStandards loads the system prompt from standardsFile, falling back to
// the built-in text when the file is absent or unreadable.
func KernelStandards(standardsFile string) string {
	if standardsFile != "" {
		if data, err := os.ReadFile(standardsFile); err == nil {
			return string(data)
		}
	}
	return defaultKernelStandards
}

// TrainingPrompt is one named training scenario with its expected code
// features, used by the iterative loop and reporting.
type TrainingPrompt struct {
	Name             string
	Prompt           string
	ExpectedFeatures []string
}

// TrainingPrompts returns the fixed training scenarios.
func TrainingPrompts() []TrainingPrompt {
	return []TrainingPrompt{
		{
			Name: "simple_char_driver",
			Prompt: `
Create a simple character device driver that supports basic read/write operations with a
1KB internal buffer. Include proper module initialization and cleanup functions.
Return only the code, no other text. No backticks. Just the executable C code.
Follow the Linux kernel coding style strictly.
Use the latest Linux kernel version APIs.
`,
			ExpectedFeatures: []string{"file_operations", "read", "write", "module_init", "module_exit"},
		},
		{
			Name: "gpio_platform_driver",
			Prompt: `
Implement a platform device driver for a simple GPIO controller with basic
set/get operations. Include device tree binding and proper platform driver structure.
Return only the code, no other text. No backticks. Just the executable C code.
Follow the Linux kernel coding style strictly.
`,
			ExpectedFeatures: []string{"platform_driver", "probe", "remove", "gpio_chip"},
		},
		{
			Name: "proc_interface_driver",
			Prompt: `
Create a character device driver that also provides a /proc interface for
configuration. Include both device file operations and proc file operations.
Return only the code, no other text. No backticks. Just the executable C code.
Follow the Linux kernel coding style strictly.
`,
			ExpectedFeatures: []string{"proc_create", "file_operations", "seq_file"},
		},
	}
}

// MissingFeatures reports which expected features the generated code lacks,
// by case-insensitive substring presence.
func (tp TrainingPrompt) MissingFeatures(code string) []string {
	lower := strings.ToLower(code)
	var missing []string
	for _, feature := range tp.ExpectedFeatures {
		if !strings.Contains(lower, strings.ToLower(feature)) {
			missing = append(missing, feature)
		}
	}
	return missing
}

// FindTrainingPrompt returns the scenario with the given name, falling back
// to the first scenario when the name is unknown.
func FindTrainingPrompt(name string) TrainingPrompt {
	all := TrainingPrompts()
	for _, tp := range all {
		if tp.Name == name {
			return tp
		}
	}
	return all[0]
}
