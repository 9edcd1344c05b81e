package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ParamKind 是参数的类型标签。
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindNumber  ParamKind = "number"
	KindBoolean ParamKind = "boolean"
	KindEnum    ParamKind = "enum"
)

// ParameterSpec 描述工具的一个输入参数。
// 不变量: 必填参数没有默认值; 枚举参数的默认值必须是枚举成员之一。
type ParameterSpec struct {
	Name        string
	Kind        ParamKind
	Description string
	Enum        []string // 仅 KindEnum 使用
	Required    bool
	Default     interface{} // 可选参数省略时填入的默认值
}

// ToolDescriptor 描述一个可调用的工具: 名称、描述和输入参数 schema。
// 进程启动时定义，此后不再变更。
type ToolDescriptor struct {
	Name        string
	Description string
	Params      []ParameterSpec
}

// UnknownToolError 表示调用了目录中不存在的工具。
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ValidationError 表示参数未通过 schema 校验。
// 校验失败发生在任何外部调用之前。
type ValidationError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: parameter %q %s", e.Tool, e.Param, e.Reason)
}

// Registry 是工具描述符的静态目录。只读，无副作用，可重复查询。
type Registry struct {
	ordered []ToolDescriptor
	byName  map[string]*ToolDescriptor
}

// NewRegistry 构建一个 Registry 并检查描述符不变量。
// 描述符在进程启动时写死，所以不变量被破坏属于编程错误，直接拒绝构建。
func NewRegistry(descriptors []ToolDescriptor) (*Registry, error) {
	r := &Registry{
		ordered: descriptors,
		byName:  make(map[string]*ToolDescriptor, len(descriptors)),
	}
	for i := range descriptors {
		d := &r.ordered[i]
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool descriptor: %s", d.Name)
		}
		for _, p := range d.Params {
			if p.Required && p.Default != nil {
				return nil, fmt.Errorf("tool %s: required parameter %q must not carry a default", d.Name, p.Name)
			}
			if p.Kind == KindEnum {
				if len(p.Enum) == 0 {
					return nil, fmt.Errorf("tool %s: enum parameter %q has no values", d.Name, p.Name)
				}
				if p.Default != nil {
					def, ok := p.Default.(string)
					if !ok || !containsString(p.Enum, def) {
						return nil, fmt.Errorf("tool %s: default of enum parameter %q is not a member of its values", d.Name, p.Name)
					}
				}
			}
		}
		r.byName[d.Name] = d
	}
	return r, nil
}

// List 按注册顺序返回所有描述符。顺序稳定，多次调用结果一致。
func (r *Registry) List() []ToolDescriptor {
	out := make([]ToolDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Resolve 按名称查找描述符，不存在时返回 UnknownToolError。
func (r *Registry) Resolve(name string) (*ToolDescriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return d, nil
}

// Validate 把边界上松散类型的参数包校验并归一化为类型确定的参数表。
// 纯函数: 校验失败返回 ValidationError，不触碰任何外部调用。
// 省略的可选参数填入默认值; 多余的参数原样透传，由适配器忽略。
func Validate(desc *ToolDescriptor, args map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}

	for _, p := range desc.Params {
		raw, present := out[p.Name]
		if !present || raw == nil {
			if p.Required {
				return nil, &ValidationError{Tool: desc.Name, Param: p.Name, Reason: "is required"}
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}

		switch p.Kind {
		case KindString:
			if _, ok := raw.(string); !ok {
				return nil, &ValidationError{Tool: desc.Name, Param: p.Name, Reason: "must be a string"}
			}
		case KindNumber:
			// JSON 解码产生 float64，整型字面量也归一化为 float64。
			switch v := raw.(type) {
			case float64:
			case int:
				out[p.Name] = float64(v)
			default:
				return nil, &ValidationError{Tool: desc.Name, Param: p.Name, Reason: "must be a number"}
			}
		case KindBoolean:
			if _, ok := raw.(bool); !ok {
				return nil, &ValidationError{Tool: desc.Name, Param: p.Name, Reason: "must be a boolean"}
			}
		case KindEnum:
			s, ok := raw.(string)
			if !ok {
				return nil, &ValidationError{Tool: desc.Name, Param: p.Name, Reason: "must be a string"}
			}
			if !containsString(p.Enum, s) {
				return nil, &ValidationError{Tool: desc.Name, Param: p.Name, Reason: fmt.Sprintf("must be one of %v", p.Enum)}
			}
		}
	}

	return out, nil
}

// MCPTool 把描述符渲染为 mcp.Tool，供 list-tools 原样暴露 schema。
func (d *ToolDescriptor) MCPTool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, p := range d.Params {
		opts = append(opts, p.mcpOption())
	}
	return mcp.NewTool(d.Name, opts...)
}

// mcpOption 把单个参数转换为 mcp-go 的属性选项。
func (p ParameterSpec) mcpOption() mcp.ToolOption {
	var propOpts []mcp.PropertyOption
	propOpts = append(propOpts, mcp.Description(p.Description))
	if p.Required {
		propOpts = append(propOpts, mcp.Required())
	}

	switch p.Kind {
	case KindNumber:
		if def, ok := p.Default.(float64); ok {
			propOpts = append(propOpts, mcp.DefaultNumber(def))
		}
		return mcp.WithNumber(p.Name, propOpts...)
	case KindBoolean:
		if def, ok := p.Default.(bool); ok {
			propOpts = append(propOpts, mcp.DefaultBool(def))
		}
		return mcp.WithBoolean(p.Name, propOpts...)
	case KindEnum:
		propOpts = append(propOpts, mcp.Enum(p.Enum...))
		if def, ok := p.Default.(string); ok {
			propOpts = append(propOpts, mcp.DefaultString(def))
		}
		return mcp.WithString(p.Name, propOpts...)
	default:
		if def, ok := p.Default.(string); ok {
			propOpts = append(propOpts, mcp.DefaultString(def))
		}
		return mcp.WithString(p.Name, propOpts...)
	}
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
