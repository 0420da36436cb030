package zmachine

import "fmt"

// Objects are read here but never modified: attribute and tree mutation
// opcodes are not implemented by this core.

func (zm *ZMachine) GetObjectEntryAddress(objectIndex uint16) (uint32, error) {
	if objectIndex > MAX_OBJECT || objectIndex == NULL_OBJECT_INDEX {
		return 0, fmt.Errorf("%w: object %d", ErrInvalidObject, objectIndex)
	}

	// Convert from 1-based (0 = NULL = no object) to 0-based
	objectIndex--
	// Skip default props
	return zm.story.header.ObjTableAddress + (31 * 2) + uint32(objectIndex)*OBJECT_ENTRY_SIZE, nil
}

func (zm *ZMachine) objectByte(objectIndex uint16, offset uint32) (uint16, error) {
	objectEntryAddress, err := zm.GetObjectEntryAddress(objectIndex)
	if err != nil {
		return 0, err
	}
	b, err := zm.story.GetUint8(objectEntryAddress + offset)
	return uint16(b), err
}

func (zm *ZMachine) GetParentObject(objectIndex uint16) (uint16, error) {
	return zm.objectByte(objectIndex, OBJECT_PARENT_INDEX)
}

func (zm *ZMachine) GetSibling(objectIndex uint16) (uint16, error) {
	return zm.objectByte(objectIndex, OBJECT_SIBLING_INDEX)
}

func (zm *ZMachine) GetFirstChild(objectIndex uint16) (uint16, error) {
	return zm.objectByte(objectIndex, OBJECT_CHILD_INDEX)
}

func (zm *ZMachine) IsDirectParent(childIndex uint16, parentIndex uint16) (bool, error) {
	parent, err := zm.GetParentObject(childIndex)
	return parent == parentIndex, err
}

// True if set
func (zm *ZMachine) TestObjectAttr(objectIndex uint16, attribute uint16) (bool, error) {
	if attribute > MAX_ATTRIBUTE {
		return false, fmt.Errorf("%w: attribute %d", ErrInvalidObject, attribute)
	}

	objectEntryAddress, err := zm.GetObjectEntryAddress(objectIndex)
	if err != nil {
		return false, err
	}

	attribs, err := zm.story.GetUint32(objectEntryAddress)
	if err != nil {
		return false, err
	}
	// 0: top bit
	// 31: bottom bit
	mask := uint32(1 << (31 - attribute))

	return (attribs & mask) != 0, nil
}

func (zm *ZMachine) propertiesAddress(objectIndex uint16) (uint32, error) {
	objectEntryAddress, err := zm.GetObjectEntryAddress(objectIndex)
	if err != nil {
		return 0, err
	}
	propertiesAddress, err := zm.story.GetUint16(objectEntryAddress + OBJECT_PROPS_INDEX)
	return uint32(propertiesAddress), err
}

func (zm *ZMachine) GetFirstPropertyAddress(objectIndex uint16) (uint32, error) {
	propertiesAddress, err := zm.propertiesAddress(objectIndex)
	if err != nil {
		return 0, err
	}
	nameLength, err := zm.story.GetUint8(propertiesAddress) // in 2-byte words
	if err != nil {
		return 0, err
	}
	return propertiesAddress + uint32(nameLength)*2 + 1, nil
}

// Returns prop data address, number of property bytes
// (0 if not found)
func (zm *ZMachine) GetObjectPropertyInfo(objectIndex uint16, propertyId uint16) (uint32, uint16, error) {
	propData, err := zm.GetFirstPropertyAddress(objectIndex)
	if err != nil {
		return 0, 0, err
	}

	for {
		propSize, err := zm.story.GetUint8(propData)
		if err != nil {
			return 0, 0, err
		}
		if propSize == 0 {
			break
		}
		propData++
		propNo := uint16(propSize & 0x1F)

		// Props are sorted, highest number first
		if propNo < propertyId {
			break
		}

		numBytes := uint16(propSize>>5) + 1
		if propNo == propertyId {
			return propData, numBytes, nil
		}
		propData += uint32(numBytes)
	}
	return 0, 0, nil
}

func (zm *ZMachine) GetObjectPropertyAddress(objectIndex uint16, propertyId uint16) (uint16, error) {
	address, _, err := zm.GetObjectPropertyInfo(objectIndex, propertyId)
	return uint16(address), err
}

func (zm *ZMachine) GetNextObjectProperty(objectIndex uint16, propertyId uint16) (uint16, error) {
	var nextPropSize uint8

	// " if called with zero, it gives the first property number present."
	if propertyId == 0 {
		propData, err := zm.GetFirstPropertyAddress(objectIndex)
		if err != nil {
			return 0, err
		}
		if nextPropSize, err = zm.story.GetUint8(propData); err != nil {
			return 0, err
		}
	} else {
		propData, numBytes, err := zm.GetObjectPropertyInfo(objectIndex, propertyId)
		if err != nil {
			return 0, err
		}
		if propData == 0 {
			return 0, fmt.Errorf("%w: object %d has no property %d", ErrInvalidObject, objectIndex, propertyId)
		}
		if nextPropSize, err = zm.story.GetUint8(propData + uint32(numBytes)); err != nil {
			return 0, err
		}
	}
	// "zero, indicating the end of the property list"
	return uint16(nextPropSize & 0x1F), nil
}

func (zm *ZMachine) GetPropertyDefault(propertyIndex uint16) (uint16, error) {
	if propertyIndex < 1 || propertyIndex > 31 {
		return 0, fmt.Errorf("%w: property %d", ErrInvalidObject, propertyIndex)
	}

	// 1-based -> 0-based
	propertyIndex--
	return zm.story.GetUint16(zm.story.header.ObjTableAddress + uint32(propertyIndex)*2)
}

// GetObjectProperty returns a property value, falling back to the default
// table when the object lacks the property. Properties longer than two
// bytes yield their first word.
func (zm *ZMachine) GetObjectProperty(objectIndex uint16, propertyId uint16) (uint16, error) {
	propData, numBytes, err := zm.GetObjectPropertyInfo(objectIndex, propertyId)
	if err != nil {
		return 0, err
	}

	if propData == 0 {
		// Get a default one
		result, err := zm.GetPropertyDefault(propertyId)
		DebugPrintf("Default prop %d = 0x%X\n", propertyId, result)
		return result, err
	}
	if numBytes == 1 {
		b, err := zm.story.GetUint8(propData)
		return uint16(b), err
	}
	return zm.story.GetUint16(propData)
}

// GetPropertyLength takes the address of property data, as returned by
// get_prop_addr.
func (zm *ZMachine) GetPropertyLength(propAddress uint16) (uint16, error) {
	if propAddress == 0 {
		return 0, nil
	}
	// To get size, we need to go 1 byte back
	propSize, err := zm.story.GetUint8(uint32(propAddress) - 1)
	if err != nil {
		return 0, err
	}
	return uint16(propSize>>5) + 1, nil
}

func (zm *ZMachine) ObjectName(objectIndex uint16) (string, error) {
	propertiesAddress, err := zm.propertiesAddress(objectIndex)
	if err != nil {
		return "", err
	}
	nameLength, err := zm.story.GetUint8(propertiesAddress)
	if err != nil || nameLength == 0 {
		return "", err
	}
	return zm.text.Decode(propertiesAddress+1, zm.config.Text.MaxStringLength)
}
